// Command billctl administers a bill reminder installation: schema
// migrations, dev tokens and offline dashboards, reports and exports.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
