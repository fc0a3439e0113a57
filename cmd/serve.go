package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveSeed      uint64
	serveMaxUpload int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the raster operations over HTTP",
	Long: `Starts the HTTP API:

  POST /attributes              multipart "file" -> JSON record
  POST /thumbnail?width=&height= multipart "file" -> image
  POST /ndvi?palette=&zones=    multipart "file" -> indexed PNG
  GET  /artifacts/{slot}        latest thumbnail or ndvi render`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", ":8000", "listen address")
	f.Uint64Var(&serveSeed, "seed", 0, "seed of the random palette (0 = clock)")
	f.Int64Var(&serveMaxUpload, "max-upload", server.DefaultMaxUpload, "maximum upload size in bytes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	prof, err := activeProfile()
	if err != nil {
		return err
	}
	enc, err := encoder.NewRegistry().Resolve(prof.Format, false)
	if err != nil {
		return err
	}
	store, err := openStore(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(server.Config{
		Store:     store,
		Open:      drivers[driverName],
		Profile:   prof,
		Encoder:   enc,
		Strict:    strict,
		Seed:      serveSeed,
		MaxUpload: serveMaxUpload,
	}).ListenAndServe(ctx, serveAddr)
}
