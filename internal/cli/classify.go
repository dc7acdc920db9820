package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/akashic/internal/capture/backoff"
	"github.com/vietddude/akashic/internal/core/config"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [message]",
	Short: "Show how a downloader failure message would be handled",
	Args:  cobra.MinimumNArgs(1),
	Run:   runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	policy := backoff.DefaultPolicy()
	if cfg, err := config.Read(cfgPath); err == nil {
		policy = cfg.Capture.Backoff
	}

	f := backoff.Classify(strings.Join(args, " "))
	fmt.Printf("kind:      %s\n", f.Kind)
	fmt.Printf("token:     %q\n", f.Token)
	fmt.Printf("unit:      %s\n", f.Unit)
	if f.Magnitude >= 0 {
		fmt.Printf("magnitude: %d\n", f.Magnitude)
	}

	switch f.Kind {
	case backoff.KindScheduledRetry, backoff.KindTransient:
		wait, ok := policy.Wait(f.Unit, f.Magnitude)
		if !ok {
			fmt.Println("action:    fatal (no backoff decision)")
			os.Exit(1)
		}
		fmt.Printf("action:    retry in %s\n", wait)
	case backoff.KindMemberGate:
		fmt.Println("action:    retry once with cookie file, then fatal")
	default:
		fmt.Println("action:    fatal")
		os.Exit(1)
	}
}
