package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/Lllllllleong/legaldocflow/internal/services"
	"github.com/spf13/cobra"
)

var processFlags struct {
	pdf, video, processNumber, title, author, appURL string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "run the pipeline on local files",
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfBytes, err := os.ReadFile(processFlags.pdf)
		if err != nil {
			return fmt.Errorf("failed to read pdf: %w", err)
		}
		videoBytes, err := os.ReadFile(processFlags.video)
		if err != nil {
			return fmt.Errorf("failed to read video: %w", err)
		}

		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		req := &services.ProcessRequest{
			ProcessNumber:    processFlags.processNumber,
			Title:            flagValue(processFlags.title),
			AuthorName:       flagValue(processFlags.author),
			AppURL:           processFlags.appURL,
			PDF:              pdfBytes,
			Video:            videoBytes,
			VideoFilename:    filepath.Base(processFlags.video),
			VideoContentType: mime.TypeByExtension(filepath.Ext(processFlags.video)),
		}
		res, err := svc.Processor.Process(cmd.Context(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models.ProcessResponse{
			Success:     true,
			Slug:        res.Slug,
			LandingURL:  res.LandingURL,
			QRCodeURL:   res.QRCodeURL,
			PDFFinalURL: res.FinalPDFURL,
			VideoURL:    res.VideoURL,
		})
	},
}

func flagValue(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processFlags.pdf, "pdf", "", "legal document PDF")
	f.StringVar(&processFlags.video, "video", "", "explanatory video")
	f.StringVar(&processFlags.processNumber, "processo", "", "process number")
	f.StringVar(&processFlags.title, "titulo", "", "document title")
	f.StringVar(&processFlags.author, "advogado", "", "lawyer name")
	f.StringVar(&processFlags.appURL, "app-url", "", "base URL of the landing pages")
	_ = processCmd.MarkFlagRequired("pdf")
	_ = processCmd.MarkFlagRequired("video")
	_ = processCmd.MarkFlagRequired("processo")
	_ = processCmd.MarkFlagRequired("app-url")
}
