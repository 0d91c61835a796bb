package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fundchat CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fundchat %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// checkServerCompatibility compares the version advertised by the backend's
// health endpoint against the configured minimum. A non-semver value on
// either side is treated as compatible, since older backends report plain
// build strings.
func checkServerCompatibility(serverVersion, minVersion string) (ok bool, reason string) {
	if minVersion == "" || serverVersion == "" {
		return true, ""
	}
	sv, err := semver.NewVersion(serverVersion)
	if err != nil {
		logDebug(fmt.Sprintf("server version %q is not semver: %v", serverVersion, err))
		return true, ""
	}
	constraint, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		logDebug(fmt.Sprintf("invalid min_server_version %q: %v", minVersion, err))
		return true, ""
	}
	if !constraint.Check(sv) {
		return false, fmt.Sprintf("backend version %s is older than the minimum supported %s", serverVersion, minVersion)
	}
	return true, ""
}
