package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"remote-apt-dater/internal/adapters"
	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
)

const notificationIcon = "software-update-available"

type runOptions struct {
	Notify bool
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll hosts periodically and report pending upgrades",
		Long: "Poll hosts periodically and report pending upgrades.\n\n" +
			"Send SIGUSR1 to trigger an immediate check. SIGINT or SIGTERM stop the process.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndicator(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Notify, "notify", true, "Show desktop notifications")
	return cmd
}

func runIndicator(cmd *cobra.Command, opts runOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	service.Config.NotifyEnabled = resolveBool(cmd, opts.Notify, adapters.KeyNotifyEnabled, "notify")
	service.Presenter = adapters.NewLogPresenterAdapter(newNotifier(service.Config.NotifyEnabled))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indicator := service.NewIndicator(ctx)

	refresh := make(chan os.Signal, 1)
	signal.Notify(refresh, syscall.SIGUSR1)
	defer signal.Stop(refresh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-refresh:
				log.Info().Msg("check requested by signal")
				indicator.Invoke(types.ActionCheck)
			}
		}
	}()

	return indicator.Run()
}

func newNotifier(enabled bool) ports.NotifierPort {
	if !enabled {
		return nil
	}
	notifier, err := adapters.NewDesktopNotifierAdapter("remote-apt-dater", notificationIcon)
	if err != nil {
		log.Warn().Err(err).Msg("desktop notifications unavailable, logging only")
		return nil
	}
	return notifier
}
