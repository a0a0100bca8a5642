package check

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// FileHashChecker verifies file integrity by comparing a file's digest
// against the digest recorded in the policy. It also flags world-writable
// permissions on the monitored file, since an integrity baseline on a file
// anyone can modify is worth little.
type FileHashChecker struct {
	// defaultAlgorithm is used when the control does not name one.
	defaultAlgorithm string
}

// FileHashCheckerOption configures a FileHashChecker.
type FileHashCheckerOption func(*FileHashChecker)

// WithDefaultAlgorithm sets the digest used when a control omits one.
func WithDefaultAlgorithm(algorithm string) FileHashCheckerOption {
	return func(c *FileHashChecker) {
		c.defaultAlgorithm = algorithm
	}
}

// NewFileHashChecker creates a new file integrity checker.
func NewFileHashChecker(opts ...FileHashCheckerOption) *FileHashChecker {
	c := &FileHashChecker{
		defaultAlgorithm: "sha256",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the check type name.
func (c *FileHashChecker) Type() string {
	return policy.CheckFileHash
}

// Check digests the target file and compares it to the expected digest.
// A control without an expected digest records the observed digest as an
// informational finding instead of judging it, which is how a baseline is
// bootstrapped on a fresh host.
func (c *FileHashChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()
	result.Expected = control.Expected

	algorithm := control.Algorithm
	if algorithm == "" {
		algorithm = c.defaultAlgorithm
	}

	info, err := os.Stat(control.Target)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot stat %s: %v", control.Target, err)
		return result, nil
	}
	if info.IsDir() {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("%s is a directory, expected a file", control.Target)
		return result, nil
	}

	digest, _, err := HashFile(control.Target, algorithm)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot hash %s: %v", control.Target, err)
		return result, nil
	}
	result.Actual = digest
	result.SetMetadata("algorithm", algorithm)
	result.SetMetadata("size", info.Size())

	// World-writable mode undermines the integrity baseline regardless of
	// whether the digest currently matches.
	if info.Mode().Perm()&0o002 != 0 {
		f := model.NewFinding("world_writable_file",
			fmt.Sprintf("%s is world-writable", control.Target),
			fmt.Sprintf("%04o", info.Mode().Perm()), control.Target)
		result.AddFinding(bindFinding(control, f))
		result.Warn(fmt.Sprintf("%s is world-writable (mode %04o)", control.Target, info.Mode().Perm()))
	}

	if control.Expected == "" {
		result.Pass(fmt.Sprintf("recorded %s digest of %s", algorithm, control.Target))
		f := model.NewFinding("file_digest_recorded",
			fmt.Sprintf("Digest recorded for %s", control.Target),
			digest, control.Target)
		result.AddFinding(bindFinding(control, f))
		return result, nil
	}

	if !strings.EqualFold(digest, control.Expected) {
		result.Fail(fmt.Sprintf("%s digest of %s does not match the baseline", algorithm, control.Target))
		f := model.NewFinding("file_hash_mismatch",
			fmt.Sprintf("%s does not match its recorded digest", control.Target),
			digest, control.Target)
		result.AddFinding(bindFinding(control, f))
		return result, nil
	}

	result.Pass(fmt.Sprintf("%s matches its %s baseline digest", control.Target, algorithm))
	return result, nil
}

// NewHasher returns a hash.Hash for the named algorithm.
// Supported algorithms are sha256, sha512 and blake2b (256-bit).
func NewHasher(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "sha256", "":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "blake2b":
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// HashFile computes the hex digest of a file with the named algorithm.
// It returns the digest and the number of bytes hashed.
// The file is streamed, so large files do not load into memory.
func HashFile(path, algorithm string) (string, int64, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", 0, err
	}

	file, err := os.Open(path) //nolint:gosec // Policy-provided path is intentional
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	n, err := io.Copy(h, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
