package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long:  "Start the JSON HTTP API and serve until interrupted.",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			if addr == "" {
				addr = s.settings.ServerAddr
			}
			if strings.HasPrefix(strings.ToLower(s.settings.LogMode), "prod") {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			s.log.Info("starting server",
				zap.String("addr", addr),
				zap.String("data_dir", s.settings.DataDir),
				zap.String("aggregation", string(s.svc.AggregationMode())),
			)
			srv := httpapi.NewServer(s.svc, httpapi.Config{Addr: addr, CORSOrigins: s.settings.CORSOrigins}, s.log)
			return srv.Run(ctx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}
