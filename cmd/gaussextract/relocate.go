package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/qcbatch/gaussextract/pkg/checker"
	"github.com/qcbatch/gaussextract/pkg/logging"
	"github.com/qcbatch/gaussextract/pkg/record"
)

func doneCommand() *cli.Command {
	return &cli.Command{
		Name:   "done",
		Usage:  "Classify every output file and relocate the completed ones into the done directory",
		Action: singleBucketAction(record.BucketCompleted, func(done, _, _, _ string) string { return done }),
	}
}

func errorsCommand() *cli.Command {
	return &cli.Command{
		Name:   "errors",
		Usage:  "Classify every output file and relocate the errored ones into the error directory",
		Action: singleBucketAction(record.BucketGenericError, func(_, errDir, _, _ string) string { return errDir }),
	}
}

func pcmCommand() *cli.Command {
	return &cli.Command{
		Name:   "pcm",
		Usage:  "Classify every output file and relocate the solvent-model non-convergence ones into the PCM directory",
		Action: singleBucketAction(record.BucketSolventModelNonConvergence, func(_, _, pcm, _ string) string { return pcm }),
	}
}

func imodeCommand() *cli.Command {
	return &cli.Command{
		Name:   "imode",
		Usage:  "Classify every output file and relocate the imaginary-frequency ones into their own directory",
		Action: singleBucketAction(record.BucketImaginaryFrequency, func(_, _, _, imaginary string) string { return imaginary }),
	}
}

// singleBucketAction builds a cli.ActionFunc that discovers the working
// directory's files, classifies them, and relocates only the named bucket
// into the directory picked by dirOf from the four resolved relocation
// directory names (done, errDir, pcm, imaginary, in that order).
func singleBucketAction(bucket record.Bucket, dirOf func(done, errDir, pcm, imaginary string) string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := resolveConfig(c)
		if err != nil {
			return fatalf("load config: %w", err)
		}
		dir, err := workingDir()
		if err != nil {
			return err
		}
		logger := newLogger(c, cfg)

		files, err := discoverWorkingFiles(c, dir)
		if err != nil {
			return fatalf("discover files: %w", err)
		}

		done, errDir, pcm, imaginary := classificationDirs(c, cfg)
		target := dirOf(done, errDir, pcm, imaginary)

		res, err := checker.RunBucket(files, bucket, target, cfg.Analysis.InputExtensions)
		if err != nil {
			return fatalf("%s: %w", bucket, err)
		}
		return reportRelocation(c, logger, bucket.String(), target, res)
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Classify every output file and relocate completed, errored, and PCM-failed jobs in a single pass",
		Action: func(c *cli.Context) error {
			cfg, err := resolveConfig(c)
			if err != nil {
				return fatalf("load config: %w", err)
			}
			dir, err := workingDir()
			if err != nil {
				return err
			}
			logger := newLogger(c, cfg)

			files, err := discoverWorkingFiles(c, dir)
			if err != nil {
				return fatalf("discover files: %w", err)
			}

			done, errDir, pcm, _ := classificationDirs(c, cfg)
			dirs := checker.TargetDirs{Done: done, Error: errDir, PCM: pcm}

			res, err := checker.RunCheck(files, dirs, cfg.Analysis.InputExtensions)
			if err != nil {
				return fatalf("check: %w", err)
			}
			return reportRelocation(c, logger, "check", "", res)
		},
	}
}

// reportRelocation prints a per-bucket move count summary and turns any
// collected classification/move errors into the command's own non-nil
// return, matching the common-flag contract that a classification verb
// fails only when something actually went wrong, not merely when a bucket
// had zero matches.
func reportRelocation(c *cli.Context, logger *logging.Logger, label, target string, res checker.Result) error {
	if !c.Bool("q") {
		moved := 0
		for _, m := range res.Moves {
			moved += len(m.Moves)
			if target == "" {
				logger.Success("%s: moved %d file(s) into %s (%s bucket)", label, len(m.Moves), m.Dir, m.Bucket)
			}
		}
		if target != "" {
			logger.Success("%s: moved %d file(s) into %s", label, moved, target)
		}
		if len(res.Skipped) > 0 {
			logger.Warning("%s: skipped %d duplicate-content file(s)", label, len(res.Skipped))
		}
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%s: %d error(s), first: %v", label, len(res.Errors), res.Errors[0])
	}
	return nil
}
