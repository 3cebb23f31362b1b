package adapters

import (
	"bufio"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// YtDlpCatalog implements VideoCatalog, Embeddability, and AudioDownloader
// by shelling out to yt-dlp, in the same subprocess-adapter style as the
// teacher's util.go (runFFmpeg, probeDuration wrap exec.Command and parse
// stdout).
type YtDlpCatalog struct {
	BinPath string // defaults to "yt-dlp" on PATH
}

func NewYtDlpCatalog() *YtDlpCatalog {
	return &YtDlpCatalog{BinPath: "yt-dlp"}
}

func (y *YtDlpCatalog) bin() string {
	if y.BinPath != "" {
		return y.BinPath
	}
	return "yt-dlp"
}

type ytDlpSearchEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Search runs a ytsearch<k>: query and parses one JSON object per line
// (yt-dlp's --dump-json / -j behavior) into Candidates.
func (y *YtDlpCatalog) Search(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		k = 5
	}
	args := []string{
		"--flat-playlist", "-j", "--no-warnings",
		"ytsearch" + strconv.Itoa(k) + ":" + query,
	}
	cmd := exec.CommandContext(ctx, y.bin(), args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "yt-dlp stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "start yt-dlp search")
	}

	var candidates []Candidate
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var entry ytDlpSearchEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.ID == "" {
			continue
		}
		candidates = append(candidates, Candidate{VideoID: entry.ID, Title: entry.Title})
	}
	_ = cmd.Wait()
	return candidates, nil
}

// IsEmbeddable asks yt-dlp for the candidate's playability as a proxy for
// embeddability: a non-zero exit or empty output means the video cannot be
// fetched and is treated as not embeddable.
func (y *YtDlpCatalog) IsEmbeddable(ctx context.Context, videoID string) (bool, error) {
	cmd := exec.CommandContext(ctx, y.bin(), "--no-warnings", "--simulate", "--print", "id", videoURL(videoID))
	out, err := cmd.Output()
	if err != nil {
		return false, nil // not embeddable, not an infra fault
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// DownloadAudio extracts the candidate's best audio track to destPath as
// mp3. It does not resample; the transcriber converts each chunk to 16kHz
// mono when it slices it.
func (y *YtDlpCatalog) DownloadAudio(ctx context.Context, videoID, destPath string) error {
	cmd := exec.CommandContext(ctx, y.bin(),
		"--no-warnings", "-f", "bestaudio",
		"--extract-audio", "--audio-format", "mp3",
		"-o", destPath,
		videoURL(videoID))
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "download audio for %s", videoID)
	}
	return nil
}

func videoURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
