package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/config"
	"github.com/chaz8081/hareef/internal/models"
)

var (
	urlFlag       string
	modelDigest   string
	modelsDirFlag string
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage exported models",
}

var modelDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the exported ONNX model",
	Long: `Download the exported ONNX model into the models directory and verify its
BLAKE2b-256 digest. The URL and digest default to model.url and
model.digest from the config. An existing file with the expected digest is
kept as is.`,
	Args: cobra.NoArgs,
	RunE: runModelDownload,
}

func init() {
	modelDownloadCmd.Flags().StringVar(&urlFlag, "url", "", "model URL (default: model.url)")
	modelDownloadCmd.Flags().StringVar(&modelDigest, "digest", "", "expected BLAKE2b-256 hex digest (default: model.digest)")
	modelDownloadCmd.Flags().StringVar(&modelsDirFlag, "dir", "", "destination directory (default "+config.DefaultModelsDir()+")")
	modelCmd.AddCommand(modelDownloadCmd)
	rootCmd.AddCommand(modelCmd)
}

func runModelDownload(cmd *cobra.Command, _ []string) error {
	url := urlFlag
	if url == "" {
		url = cfg.Model.URL
	}
	if url == "" {
		return errors.New("no model URL: pass --url or set model.url in the config")
	}
	digest := modelDigest
	if digest == "" && !cmd.Flags().Changed("url") {
		digest = cfg.Model.Digest
	}
	dir := modelsDirFlag
	if dir == "" {
		dir = config.DefaultModelsDir()
	}

	models.Output = cmd.OutOrStdout()
	path, err := models.Download(cmd.Context(), url, dir, digest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Model saved to %s\n", path)
	if path != cfg.ONNXModel {
		fmt.Fprintf(cmd.OutOrStdout(), "Set onnx_model: %s in the config to use it.\n", path)
	}
	return nil
}
