// Command avatarctl drives a running avatard daemon: it submits batch
// manifests job by job and inspects daemon status.
package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"avatard/internal/common/jsonx"
	"avatard/internal/manifest"
	"avatard/internal/media"
	"avatard/pkg/types"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	server := os.Getenv("AVATARD_URL")
	if server == "" {
		server = "http://localhost:8080"
	}

	root := &cobra.Command{
		Use:           "avatarctl",
		Short:         "Client for the avatard video generation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", server, "Base URL of the avatard daemon (defaults AVATARD_URL or http://localhost:8080)")

	var outDir string
	var timeout time.Duration
	batchCmd := &cobra.Command{
		Use:     "batch <manifest.csv>",
		Short:   "Generate a video per manifest row and write results to disk",
		Example: "  avatarctl batch jobs.csv --output-dir ./results",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(server, args[0], outDir, timeout)
		},
	}
	batchCmd.Flags().StringVar(&outDir, "output-dir", "./results", "Directory for generated videos and metadata sidecars")
	batchCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "Per-job request timeout")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(server)
		},
	}

	root.AddCommand(batchCmd, statusCmd)
	return root
}

// runBatch submits every manifest job in order. Failures are recorded in
// the job's metadata sidecar and do not stop the run.
func runBatch(server, manifestPath, outDir string, timeout time.Duration) error {
	jobs, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("manifest %s has no jobs", manifestPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	var ok, failed int
	for _, job := range jobs {
		if d, err := media.WavDuration(job.AudioPath); err == nil {
			fmt.Printf("job %s: %.1fs of driving audio\n", job.ID, d)
		}
		md := manifest.Metadata{
			JobID:       job.ID,
			ImagePath:   job.ImagePath,
			AudioPath:   job.AudioPath,
			Prompt:      job.Prompt,
			FPS:         job.FPS,
			GeneratedAt: time.Now().UTC(),
		}
		resp, err := submitJob(client, server, job)
		switch {
		case err != nil:
			md.Status = "failed"
			md.Info = err.Error()
			failed++
			fmt.Fprintf(os.Stderr, "job %s: %v\n", job.ID, err)
		case resp.ErrCode != 0:
			md.Status = "failed"
			md.Info = fmt.Sprintf("errCode %d: %s", resp.ErrCode, resp.Info)
			failed++
			fmt.Fprintf(os.Stderr, "job %s: errCode %d: %s\n", job.ID, resp.ErrCode, resp.Info)
		default:
			video, err := decodeVideo(resp)
			if err != nil {
				md.Status = "failed"
				md.Info = err.Error()
				failed++
				fmt.Fprintf(os.Stderr, "job %s: %v\n", job.ID, err)
				break
			}
			out := manifest.OutputPath(outDir, job.ID)
			if err := os.WriteFile(out, video, 0o644); err != nil {
				md.Status = "failed"
				md.Info = err.Error()
				failed++
				fmt.Fprintf(os.Stderr, "job %s: %v\n", job.ID, err)
				break
			}
			md.Status = "ok"
			md.Info = resp.Info
			ok++
			fmt.Printf("job %s: wrote %s (%d bytes)\n", job.ID, out, len(video))
		}
		if err := manifest.WriteMetadata(outDir, md); err != nil {
			fmt.Fprintf(os.Stderr, "job %s: metadata: %v\n", job.ID, err)
		}
	}

	fmt.Printf("done: %d ok, %d failed of %d jobs\n", ok, failed, len(jobs))
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}

func submitJob(client *http.Client, server string, job manifest.Job) (*types.GenerateResponse, error) {
	body, err := jsonx.Marshal(types.GenerateRequest{
		ImagePath: job.ImagePath,
		AudioPath: job.AudioPath,
		Prompt:    job.Prompt,
		SaveFPS:   job.FPS,
	})
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(server+"/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out types.GenerateResponse
	if err := jsonx.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func decodeVideo(resp *types.GenerateResponse) ([]byte, error) {
	if len(resp.Content) == 0 || resp.Content[0].Buffer == nil {
		return nil, fmt.Errorf("response carries no video buffer")
	}
	video, err := base64.StdEncoding.DecodeString(*resp.Content[0].Buffer)
	if err != nil {
		return nil, fmt.Errorf("decode video buffer: %w", err)
	}
	return video, nil
}

func runStatus(server string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(server + "/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request: HTTP %d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := jsonx.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	fmt.Printf("state:            %s\n", st.State)
	fmt.Printf("tier:             %s\n", st.Tier)
	fmt.Printf("resolution:       %d\n", st.Config.Resolution)
	fmt.Printf("clip length:      %d frames\n", st.Config.ClipLength)
	fmt.Printf("steps:            %d\n", st.Config.Steps)
	fmt.Printf("precision:        %s\n", st.Config.Precision)
	fmt.Printf("cpu offload:      %v\n", st.Config.CPUOffload)
	fmt.Printf("max audio:        %ds\n", st.Config.MaxAudioSeconds)
	if st.CapacityBytes > 0 {
		fmt.Printf("accelerator:      %d / %d MiB allocated\n", st.AllocatedBytes>>20, st.CapacityBytes>>20)
	} else {
		fmt.Printf("accelerator:      none\n")
	}
	for _, c := range st.Components {
		fmt.Printf("  %-14s %s\n", c.Component, c.Placement)
	}
	fmt.Printf("generations:      %d (%d memory recoveries, %d busy rejections)\n",
		st.GenerationsTotal, st.OOMRecoveriesTotal, st.BusyRejectionsTotal)
	if st.LastError != "" {
		fmt.Printf("last error:       %s\n", st.LastError)
	}
	fmt.Printf("uptime:           %ds\n", st.UptimeSeconds)
	return nil
}
