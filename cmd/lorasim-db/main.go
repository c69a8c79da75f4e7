// lorasim-db provides command-line read access to a simulator run's
// SQLite database: the device registry, pending-command ledger, and
// run-summary history.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	limit   int
	rootCmd = &cobra.Command{
		Use:   "lorasim-db",
		Short: "lorasim database inspector",
		Long:  "Command-line tool for inspecting a lorasim run's SQLite database.",
	}

	devicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "List the device registry",
		RunE:  listDevices,
	}

	pendingCmd = &cobra.Command{
		Use:   "pending",
		Short: "Show unacknowledged pending commands",
		RunE:  showPending,
	}

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "Show recent run summaries",
		RunE:  showRuns,
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE:  showStats,
	}

	queryCmd = &cobra.Command{
		Use:   "query [sql]",
		Short: "Execute a raw SELECT query",
		Args:  cobra.ExactArgs(1),
		RunE:  executeQuery,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "./lorasim.db", "Database file path")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath+"?mode=ro")
}

func listDevices(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT dev_eui, dev_addr, registered, last_seen, last_rssi_dbm, created_at
		FROM devices ORDER BY last_seen DESC LIMIT ?
	`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEV EUI\tDEV ADDR\tREG\tLAST SEEN\tRSSI\tCREATED")
	fmt.Fprintln(w, "-------\t--------\t---\t---------\t----\t-------")

	for rows.Next() {
		var devEUI string
		var devAddr sql.NullString
		var registered bool
		var lastSeen sql.NullTime
		var rssi sql.NullFloat64
		var createdAt time.Time

		if err := rows.Scan(&devEUI, &devAddr, &registered, &lastSeen, &rssi, &createdAt); err != nil {
			return err
		}

		addrStr := devAddr.String
		if addrStr == "" {
			addrStr = "-"
		}
		regStr := "N"
		if registered {
			regStr = "Y"
		}
		seenStr := "-"
		if lastSeen.Valid {
			seenStr = lastSeen.Time.Format("01-02 15:04:05")
		}
		rssiStr := "-"
		if rssi.Valid {
			rssiStr = fmt.Sprintf("%.1fdBm", rssi.Float64)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			devEUI, addrStr, regStr, seenStr, rssiStr, createdAt.Format("01-02 15:04:05"))
	}
	w.Flush()
	return nil
}

func showPending(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT id, dev_eui, fcnt_down, sent_at, retries
		FROM pending_commands WHERE acked_at IS NULL ORDER BY sent_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEV EUI\tFCNT DOWN\tSENT AT\tRETRIES")
	fmt.Fprintln(w, "--\t-------\t---------\t-------\t-------")

	for rows.Next() {
		var id, retries int64
		var devEUI string
		var fcntDown int64
		var sentAt time.Time

		if err := rows.Scan(&id, &devEUI, &fcntDown, &sentAt, &retries); err != nil {
			return err
		}

		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\n", id, devEUI, fcntDown, sentAt.Format("15:04:05"), retries)
	}
	w.Flush()
	return nil
}

func showRuns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT id, finished_at, collisions, deliveries, drops
		FROM run_summaries ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFINISHED\tCOLLISIONS\tDELIVERIES\tDROPS")
	fmt.Fprintln(w, "--\t--------\t----------\t----------\t-----")

	for rows.Next() {
		var id, collisions, deliveries, drops int64
		var finishedAt time.Time

		if err := rows.Scan(&id, &finishedAt, &collisions, &deliveries, &drops); err != nil {
			return err
		}

		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n",
			id, finishedAt.Format("01-02 15:04:05"), collisions, deliveries, drops)
	}
	w.Flush()
	return nil
}

func showStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("lorasim database statistics")
	fmt.Println("============================")

	var deviceCount, registeredCount int
	db.QueryRow("SELECT COUNT(*) FROM devices").Scan(&deviceCount)
	db.QueryRow("SELECT COUNT(*) FROM devices WHERE registered = 1").Scan(&registeredCount)
	fmt.Printf("Devices: %d (registered: %d)\n", deviceCount, registeredCount)

	var pendingCount int
	db.QueryRow("SELECT COUNT(*) FROM pending_commands WHERE acked_at IS NULL").Scan(&pendingCount)
	fmt.Printf("Pending commands: %d\n", pendingCount)

	var runCount int
	var totalCollisions, totalDeliveries, totalDrops int64
	db.QueryRow("SELECT COUNT(*), COALESCE(SUM(collisions),0), COALESCE(SUM(deliveries),0), COALESCE(SUM(drops),0) FROM run_summaries").
		Scan(&runCount, &totalCollisions, &totalDeliveries, &totalDrops)
	fmt.Printf("Runs recorded: %d (collisions=%d deliveries=%d drops=%d)\n",
		runCount, totalCollisions, totalDeliveries, totalDrops)

	return nil
}

func executeQuery(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	query := args[0]
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed")
	}

	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	fmt.Fprintln(w, strings.Repeat("-\t", len(cols)))

	values := make([]interface{}, len(cols))
	valuePtrs := make([]interface{}, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		var row []string
		for _, v := range values {
			switch val := v.(type) {
			case nil:
				row = append(row, "NULL")
			case []byte:
				row = append(row, string(val))
			default:
				row = append(row, fmt.Sprintf("%v", val))
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return nil
}
