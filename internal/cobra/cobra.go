package cobra

import (
	"context"
	"fmt"

	"github.com/eoslike/tgcraid/internal/config"
	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/eoslike/tgcraid/internal/raid/raiddp"
	"github.com/eoslike/tgcraid/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var inputData string
var killStripe int
var tgcSpaces []string
var tgcNbEvents int

var rootCmd = &cobra.Command{
	Use:   "tgcraid",
	Short: "A base CLI app with Cobra and logrus",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.Info("Hello from the base CLI app!")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.Infof("Version: %s", config.Version)
	},
}

var raidCmd = &cobra.Command{
	Use:   "raid",
	Short: "Write data into an in-memory striped+parity layout, then read it back",
	Run: func(cmd *cobra.Command, args []string) {
		if inputData == "" {
			logrus.Error("Please provide --data")
			return
		}
		runRaidDemo(inputData, killStripe)
	},
}

var tgcCmd = &cobra.Command{
	Use:   "tgc",
	Short: "Run a tape-aware garbage collection demo against a fake namespace",
	Run: func(cmd *cobra.Command, args []string) {
		if len(tgcSpaces) == 0 {
			tgcSpaces = []string{"default"}
		}
		service.StartTapeGc(tgcSpaces, tgcNbEvents)
	},
}

func runRaidDemo(data string, kill int) {
	const nData = 3

	codec, err := raiddp.NewCodec(nData)
	if err != nil {
		logrus.Errorf("failed to build codec: %v", err)
		return
	}

	layoutID := raid.LayoutID{
		DataShards:   nData,
		ParityShards: codec.ParityShards(),
		StripeWidth:  config.DefaultStripeWidth,
	}

	factory := raid.NewMemStripeIOFactory()
	layout, err := raid.NewLayout(layoutID, factory, codec)
	if err != nil {
		logrus.Errorf("failed to build layout: %v", err)
		return
	}

	fileID := uuid.New().String()
	urls := make([]string, layoutID.DataShards+layoutID.ParityShards)
	for i := range urls {
		urls[i] = fmt.Sprintf("mem://%s/stripe-%d", fileID, i)
	}

	ctx := context.Background()
	if err := layout.Open(ctx, raid.OpenOptions{
		URLs:         urls,
		ReplicaIndex: 0,
		ReplicaHead:  0,
		Flags:        raid.ORdWr | raid.OTrunc,
	}); err != nil {
		logrus.Errorf("failed to open layout: %v", err)
		return
	}
	defer layout.Close(ctx)

	input := []byte(data)
	if _, err := layout.Write(ctx, 0, input); err != nil {
		logrus.Errorf("write failed: %v", err)
		return
	}
	if err := layout.Sync(ctx); err != nil {
		logrus.Errorf("sync failed: %v", err)
		return
	}
	logrus.Infof("wrote %d bytes across %d data + %d parity stripes", len(input), layoutID.DataShards, layoutID.ParityShards)

	out := make([]byte, len(input))
	if _, err := layout.Read(ctx, 0, out); err != nil {
		logrus.Errorf("read failed: %v", err)
	} else {
		logrus.Infof("recovered: %q", string(out))
	}

	if kill >= 0 && kill < len(urls) {
		factory.Fail(urls[kill])
		logrus.Infof("simulated failure of stripe %d", kill)

		out2 := make([]byte, len(input))
		if _, err := layout.Read(ctx, 0, out2); err != nil {
			logrus.Errorf("read after failure failed: %v", err)
		} else {
			logrus.Infof("recovered after failure: %q", string(out2))
		}
	}
}

func InitCLI() *cobra.Command {
	raidCmd.Flags().StringVar(&inputData, "data", "", "Input data to write into the layout")
	raidCmd.Flags().IntVar(&killStripe, "kill-stripe", -1, "Simulate failure of this stripe index after the first write (-1 disables)")

	tgcCmd.Flags().StringSliceVar(&tgcSpaces, "spaces", []string{"default"}, "EOS space names to run tape gc against")
	tgcCmd.Flags().IntVar(&tgcNbEvents, "events", 20, "Number of synthetic fileOpened events to deliver before exiting")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(raidCmd)
	rootCmd.AddCommand(tgcCmd)

	return rootCmd
}

func ExecuteCmd() error {
	return InitCLI().Execute()
}
