package main

import (
	"fmt"
	"os"
	"sort"

	"facealarm/internal/config"
	"facealarm/internal/repository/sqlite"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show journaled alerts",
	Long:  `Print the most recent alerts from the alert journal followed by summary statistics.`,
	RunE:  runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().Int("limit", 10, "Number of alerts to show")
	alertsCmd.Flags().String("db", "", "Database path (overrides DATABASE_PATH)")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	dbPath := mustGetString(cmd, "db")
	if dbPath == "" {
		dbPath = config.Load().DatabasePath
	}
	if dbPath == "" {
		return fmt.Errorf("no alert journal configured (set DATABASE_PATH or --db)")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("alert journal %s: %w", dbPath, err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	alerts := sqlite.NewAlertRepository(db)
	actions := sqlite.NewActionRepository(db)

	recent, err := alerts.GetRecent(mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("No alerts recorded")
		return nil
	}

	for _, a := range recent {
		fmt.Printf("#%d  %s  camera %s  %d face(s)  run %s\n",
			a.ID, a.TriggeredAt.Local().Format("2006-01-02 15:04:05"), a.Camera, a.FaceCount, a.RunID)

		results, err := actions.GetByAlertID(a.ID)
		if err != nil {
			fmt.Printf("   ⚠️  Failed to load actions: %v\n", err)
			continue
		}
		for _, r := range results {
			line := fmt.Sprintf("   - %-18s %-6s %v", r.Action, r.Status, r.Duration())
			if r.Error != "" {
				line += "  " + r.Error
			}
			fmt.Println(line)
		}
	}

	stats, err := alerts.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\n📊 Journal Statistics:\n")
	fmt.Printf("   Total alerts: %d\n", stats.TotalAlerts)
	fmt.Printf("   Total faces: %d\n", stats.TotalFaces)
	fmt.Printf("   Per camera:\n")
	for _, camera := range sortedKeys(stats.PerCamera) {
		fmt.Printf("      - %s: %d alerts\n", camera, stats.PerCamera[camera])
	}
	if len(stats.FailedActions) > 0 {
		fmt.Printf("   Failed actions:\n")
		for _, action := range sortedKeys(stats.FailedActions) {
			fmt.Printf("      - %s: %d\n", action, stats.FailedActions[action])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
