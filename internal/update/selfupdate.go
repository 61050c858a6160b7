package update

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// EnvRestarted is set on the process started by Restart.
const EnvRestarted = "MCSS_RESTARTED"

// SkipUpdateFlag is inserted into the restarted argv so the new process does not loop.
const SkipUpdateFlag = "--skip-update"

const defaultMaxScriptBytes = int64(64 * 1024 * 1024) // 64 MiB

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// shells whose -n flag performs a parse-only syntax check.
var syntaxCheckShells = map[string]bool{
	"sh":   true,
	"bash": true,
	"dash": true,
	"zsh":  true,
	"ksh":  true,
}

// ErrRestarted signals that execution was handed off to the updated installer.
var ErrRestarted = errors.New(messages.UpdateRestarted)

// UpdateError reports why a self-update did not replace the installer.
type UpdateError struct {
	Reason string
	Err    error
}

func (e *UpdateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf(messages.UpdateFailedFmt, e.Reason)
	}
	return fmt.Sprintf(messages.UpdateFailedCauseFmt, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UpdateError) Unwrap() error {
	return e.Err
}

// UpdaterOptions configures an Updater.
type UpdaterOptions struct {
	// Target is the installed installer that gets replaced.
	Target   string
	Client   *http.Client
	MaxBytes int64
	System   System
	Log      *zap.Logger
}

// Updater downloads a replacement installer and swaps it in atomically.
type Updater struct {
	target   string
	client   *http.Client
	maxBytes int64
	sys      System
	log      *zap.Logger
}

// NewUpdater returns an Updater; zero options take defaults.
func NewUpdater(opts UpdaterOptions) *Updater {
	u := &Updater{
		target:   opts.Target,
		client:   opts.Client,
		maxBytes: opts.MaxBytes,
		sys:      opts.System,
		log:      opts.Log,
	}
	if u.client == nil {
		u.client = &http.Client{Timeout: DefaultTimeout}
	}
	if u.maxBytes <= 0 {
		u.maxBytes = defaultMaxScriptBytes
	}
	if u.sys == nil {
		u.sys = RealSystem{}
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	return u
}

// Update downloads remoteURL, verifies it and renames it over the target.
// The target is never truncated: on any failure the temp file is removed and
// the installed installer is left untouched.
func (u *Updater) Update(ctx context.Context, remoteURL string) error {
	if strings.TrimSpace(u.target) == "" {
		return &UpdateError{Reason: messages.UpdateTargetRequired}
	}
	dir := filepath.Dir(u.target)
	tmp, err := os.CreateTemp(dir, filepath.Base(u.target)+".tmp-*")
	if err != nil {
		return &UpdateError{Reason: messages.UpdateReasonCreateTemp, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := u.download(ctx, remoteURL, tmp)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &UpdateError{Reason: messages.UpdateReasonSyncTemp, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &UpdateError{Reason: messages.UpdateReasonCloseTemp, Err: err}
	}
	if n == 0 {
		return &UpdateError{Reason: messages.UpdateReasonEmpty}
	}
	if err := u.verify(ctx, tmpName); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, u.targetMode()); err != nil {
		return &UpdateError{Reason: messages.UpdateReasonChmod, Err: err}
	}
	if err := os.Rename(tmpName, u.target); err != nil {
		return &UpdateError{Reason: messages.UpdateReasonRename, Err: err}
	}
	committed = true
	u.log.Info("installer replaced", zap.String("target", u.target), zap.Int64("bytes", n))
	return nil
}

// Restart re-executes the updated target with args (argv including argv[0]).
// On success the current process image is replaced and Restart does not return;
// it returns ErrRestarted only when System.Exec hands off without replacing the process.
func (u *Updater) Restart(args []string) error {
	if strings.TrimSpace(u.target) == "" {
		return &UpdateError{Reason: messages.UpdateTargetRequired}
	}
	env := append(u.sys.Environ(), EnvRestarted+"=1")
	argv := RestartArgs(u.target, args)
	u.log.Info("restarting updated installer", zap.Strings("argv", argv))
	if err := u.sys.Exec(u.target, argv, env); err != nil {
		return &UpdateError{Reason: messages.UpdateReasonExec, Err: err}
	}
	return ErrRestarted
}

// RestartArgs replaces argv[0] with target and ensures the skip-update flag is present.
func RestartArgs(target string, args []string) []string {
	argv := []string{target}
	hasSkip := false
	if len(args) > 1 {
		for _, arg := range args[1:] {
			if arg == SkipUpdateFlag || arg == SkipUpdateFlag+"=true" {
				hasSkip = true
			}
		}
	}
	if !hasSkip {
		argv = append(argv, SkipUpdateFlag)
	}
	if len(args) > 1 {
		argv = append(argv, args[1:]...)
	}
	return argv
}

func (u *Updater) download(ctx context.Context, remoteURL string, dest io.Writer) (int64, error) {
	resp, err := u.get(ctx, remoteURL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(dest, io.LimitReader(resp.Body, u.maxBytes+1))
	if err != nil {
		return n, &UpdateError{Reason: messages.UpdateReasonInterrupted, Err: err}
	}
	if n > u.maxBytes {
		return n, &UpdateError{Reason: fmt.Sprintf(messages.UpdateReasonTooLargeFmt, u.maxBytes)}
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, &UpdateError{Reason: fmt.Sprintf(messages.UpdateReasonShortBodyFmt, n, resp.ContentLength)}
	}
	return n, nil
}

func (u *Updater) get(ctx context.Context, remoteURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, &UpdateError{Reason: messages.UpdateReasonRequest, Err: err}
	}
	req.Header.Set("User-Agent", "mcss")
	resp, err := u.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, &UpdateError{Reason: messages.UpdateReasonTimeout, Err: err}
		}
		return nil, &UpdateError{Reason: messages.UpdateReasonDownload, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &UpdateError{Reason: fmt.Sprintf(messages.UpdateReasonStatusFmt, resp.Status)}
	}
	return resp, nil
}

// verify accepts ELF binaries and shebang scripts; shell scripts must also parse.
func (u *Updater) verify(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &UpdateError{Reason: messages.UpdateReasonVerify, Err: err}
	}
	head, err := bufio.NewReader(file).ReadString('\n')
	_ = file.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return &UpdateError{Reason: messages.UpdateReasonVerify, Err: err}
	}

	if bytes.HasPrefix([]byte(head), elfMagic) {
		return nil
	}
	interpreter, ok := parseShebang(head)
	if !ok {
		return &UpdateError{Reason: messages.UpdateReasonUnknownFormat}
	}
	if !syntaxCheckShells[interpreter] {
		u.log.Debug("no syntax check for interpreter", zap.String("interpreter", interpreter))
		return nil
	}
	if err := u.sys.CheckSyntax(ctx, interpreter, path); err != nil {
		return &UpdateError{Reason: messages.UpdateReasonSyntax, Err: err}
	}
	return nil
}

// parseShebang returns the interpreter base name of a "#!" line, resolving /usr/bin/env.
func parseShebang(line string) (string, bool) {
	if !strings.HasPrefix(line, "#!") {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return "", false
	}
	interpreter := filepath.Base(fields[0])
	if interpreter == "env" {
		rest := fields[1:]
		for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return "", false
		}
		interpreter = filepath.Base(rest[0])
	}
	return interpreter, true
}

func (u *Updater) targetMode() os.FileMode {
	info, err := os.Stat(u.target)
	if err != nil {
		return 0o755
	}
	return info.Mode().Perm()
}
