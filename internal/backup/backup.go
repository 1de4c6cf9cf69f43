package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader is the slice of the S3 upload manager we use, kept narrow
// so tests can fake it.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Config struct {
	DBURL  string
	Bucket string
}

type Runner struct {
	cfg      Config
	uploader S3Uploader
	logger   *slog.Logger

	// overridable in tests
	dumpCmd func(ctx context.Context) *exec.Cmd
}

func NewRunner(cfg Config, uploader S3Uploader, logger *slog.Logger) *Runner {
	r := &Runner{
		cfg:      cfg,
		uploader: uploader,
		logger:   logger,
	}

	r.dumpCmd = func(ctx context.Context) *exec.Cmd {
		// custom format dumps restore with pg_restore and compress well
		return exec.CommandContext(ctx, "pg_dump", "--format=custom", "--no-owner", r.cfg.DBURL)
	}

	return r
}

// RunDatabaseBackup streams a pg_dump straight into S3 without staging the
// dump on local disk.
func (r *Runner) RunDatabaseBackup(ctx context.Context) (string, error) {
	key := fmt.Sprintf("db/modelfolio-%s.dump", time.Now().UTC().Format("2006-01-02T15-04-05"))

	cmd := r.dumpCmd(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("pg_dump stdout: %w", err)
	}

	var stderr io.ReadCloser
	stderr, err = cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("pg_dump stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("pg_dump start: %w", err)
	}

	_, upErr := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
		Body:   stdout,
	})

	errOut, _ := io.ReadAll(stderr)

	waitErr := cmd.Wait()

	if upErr != nil {
		return "", fmt.Errorf("upload backup: %w", upErr)
	}

	if waitErr != nil {
		return "", fmt.Errorf("pg_dump failed: %w: %s", waitErr, string(errOut))
	}

	r.logger.Info("database backup uploaded", "bucket", r.cfg.Bucket, "key", key)
	return key, nil
}
