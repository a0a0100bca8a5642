package snapshot

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hostaudit/hostaudit/internal/check"
	"github.com/hostaudit/hostaudit/internal/config"
	"github.com/hostaudit/hostaudit/internal/model"
)

// Collector records a baseline snapshot of host state: digests of monitored
// file trees, local accounts and groups, running processes, listening TCP
// sockets and scheduled tasks.
//
// Design decision: The collector reuses the check package's parsers rather
// than carrying its own, so a snapshot and an audit of the same host can
// never disagree about what the passwd file or the process table contains.
type Collector struct {
	// paths holds the system path overrides.
	paths config.Paths

	// roots are the file trees to hash.
	roots []string

	// algorithm is the file digest algorithm.
	algorithm string

	// logger for structured logging.
	logger *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithRoots sets the file trees hashed into the snapshot.
func WithRoots(roots []string) CollectorOption {
	return func(c *Collector) {
		c.roots = roots
	}
}

// WithAlgorithm sets the file digest algorithm.
func WithAlgorithm(algorithm string) CollectorOption {
	return func(c *Collector) {
		if algorithm != "" {
			c.algorithm = algorithm
		}
	}
}

// WithCollectorLogger sets a custom logger.
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a snapshot collector using the given path overrides.
func NewCollector(paths config.Paths, opts ...CollectorOption) *Collector {
	c := &Collector{
		paths:     paths,
		algorithm: config.DefaultHashAlgorithm,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers all snapshot sections.
// Sections that cannot be read (no cron spool, no proc net files) are
// recorded as empty rather than failing the snapshot; a partial baseline
// still supports drift detection on the sections it has.
func (c *Collector) Collect(ctx context.Context, label string) (*model.Snapshot, error) {
	snap := model.NewSnapshot(label)

	files, err := c.collectFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect files: %w", err)
	}
	snap.Files = files

	accounts, err := check.ReadAccounts(c.paths.PasswdOrDefault())
	if err != nil {
		c.logger.Warn("skipping account section", "error", err)
	}
	snap.Accounts = accounts

	groups, err := check.ReadGroups(c.paths.GroupOrDefault())
	if err != nil {
		c.logger.Warn("skipping group section", "error", err)
	}
	snap.Groups = groups

	services, err := check.ListProcesses(c.paths.ProcOrDefault())
	if err != nil {
		c.logger.Warn("skipping service section", "error", err)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].PID < services[j].PID })
	snap.Services = services

	ports, err := ListeningPorts(c.paths.ProcOrDefault())
	if err != nil {
		c.logger.Warn("skipping port section", "error", err)
	}
	snap.Ports = ports

	cron, err := check.CollectCron(
		c.paths.SystemCrontabOrDefault(),
		c.paths.CronDirOrDefault(),
		c.paths.UserCronDirOrDefault(),
	)
	if err != nil {
		c.logger.Warn("skipping cron section", "error", err)
	}
	snap.CronJobs = cron

	c.logger.Info("snapshot collected",
		"files", len(snap.Files),
		"accounts", len(snap.Accounts),
		"services", len(snap.Services),
		"ports", len(snap.Ports),
		"cron_jobs", len(snap.CronJobs),
	)
	return snap, nil
}

// collectFiles walks the configured roots and hashes every regular file.
// Unreadable files are skipped with a log line; a permission hole in one
// directory should not abort the whole baseline.
func (c *Collector) collectFiles(ctx context.Context) ([]model.FileRecord, error) {
	var records []model.FileRecord

	for _, root := range c.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				c.logger.Debug("skipping unreadable entry", "path", path, "error", err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			digest, size, err := check.HashFile(path, c.algorithm)
			if err != nil {
				c.logger.Debug("skipping unreadable file", "path", path, "error", err)
				return nil
			}
			records = append(records, model.FileRecord{
				Path:      path,
				Algorithm: c.algorithm,
				Digest:    digest,
				Size:      size,
				Mode:      fileModeOctal(info.Mode()),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// fileModeOctal renders a file mode in Unix octal form, keeping the setuid,
// setgid and sticky bits that Perm() masks off.
func fileModeOctal(mode fs.FileMode) string {
	bits := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		bits |= 0o1000
	}
	return fmt.Sprintf("%04o", bits)
}

// ListeningPorts reads listening TCP sockets from procfs.
// Both the IPv4 and IPv6 tables are read; a missing table (common in
// minimal containers) contributes no entries.
func ListeningPorts(procPath string) ([]model.PortRecord, error) {
	var records []model.PortRecord

	for _, table := range []struct {
		file  string
		proto string
	}{
		{"net/tcp", "tcp"},
		{"net/tcp6", "tcp6"},
	} {
		fromTable, err := parseProcNetTCP(filepath.Join(procPath, table.file), table.proto)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		records = append(records, fromTable...)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Port != records[j].Port {
			return records[i].Port < records[j].Port
		}
		return records[i].Proto < records[j].Proto
	})
	return records, nil
}

// tcpListenState is the st column value for a listening socket.
const tcpListenState = "0A"

// parseProcNetTCP parses one /proc/net/tcp-format table, keeping only
// sockets in the LISTEN state. Each data line looks like:
//
//	0: 0100007F:1F90 00000000:0000 0A ...
//
// where the local address is hex IP:port.
func parseProcNetTCP(path, proto string) ([]model.PortRecord, error) {
	file, err := os.Open(path) //nolint:gosec // Path is built from the configured proc root
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []model.PortRecord
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			// Header line
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[3] != tcpListenState {
			continue
		}

		local := strings.Split(fields[1], ":")
		if len(local) != 2 {
			continue
		}
		port, err := strconv.ParseInt(local[1], 16, 32)
		if err != nil {
			continue
		}

		record := model.PortRecord{
			Proto:   proto,
			Port:    int(port),
			Address: decodeHexAddress(local[0]),
		}
		if seen[record.Key()] {
			continue
		}
		seen[record.Key()] = true
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// decodeHexAddress converts a procfs hex address into textual form.
// IPv4 addresses are 8 hex digits in little-endian byte order; IPv6
// addresses are 32 hex digits in little-endian 32-bit groups.
func decodeHexAddress(hexAddr string) string {
	raw, err := hex.DecodeString(hexAddr)
	if err != nil {
		return ""
	}

	switch len(raw) {
	case 4:
		return net.IPv4(raw[3], raw[2], raw[1], raw[0]).String()
	case 16:
		ip := make(net.IP, 16)
		for group := 0; group < 4; group++ {
			for b := 0; b < 4; b++ {
				ip[group*4+b] = raw[group*4+3-b]
			}
		}
		return ip.String()
	default:
		return ""
	}
}
