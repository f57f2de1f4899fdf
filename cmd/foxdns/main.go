// Command foxdns is the relay itself: it loads the static host table (and
// optional wildcard blocklist), binds the two UDP sockets the dispatcher
// needs, and runs the single-threaded event loop until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/foxdns/foxdns/internal/api"
	"github.com/foxdns/foxdns/internal/cache"
	"github.com/foxdns/foxdns/internal/config"
	"github.com/foxdns/foxdns/internal/filtering"
	"github.com/foxdns/foxdns/internal/helpers"
	"github.com/foxdns/foxdns/internal/hosttable"
	"github.com/foxdns/foxdns/internal/logging"
	"github.com/foxdns/foxdns/internal/relay"
	"github.com/foxdns/foxdns/internal/store"
)

const (
	defaultUpstream   = "10.3.9.5"
	defaultConfigPath = "dnsrelay.txt"
	defaultCacheSize  = 10000
	maxCacheSize      = 10_000_000
	dnsPort           = 53
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// cliFlags holds the flags this command accepts. -d/-dd and the two
// positional arguments are the relay's original CLI contract; everything
// else is additive configuration for the ambient/admin stack and changes
// nothing about how a query is answered.
type cliFlags struct {
	debug        bool
	verboseDebug bool
	blocklist    string
	adminConfig  string
	adminAddr    string
	cacheSize    int

	upstream string
	hostFile string
}

func run(args []string) int {
	fs := flag.NewFlagSet("foxdns", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(fs) }

	var f cliFlags
	fs.BoolVar(&f.debug, "d", false, "enable per-query trace logging")
	fs.BoolVar(&f.verboseDebug, "dd", false, "enable verbose internal debug logging (cache/forward/timeout events)")
	fs.StringVar(&f.blocklist, "blocklist", "", "optional wildcard-capable blocklist file (domains, one per line, \"*.\" prefix for subtrees)")
	fs.StringVar(&f.adminConfig, "admin-config", "", "optional YAML file configuring the admin API, rate limiter, and audit store")
	fs.StringVar(&f.adminAddr, "admin-addr", "", "host:port to serve the read-only admin API on (disabled unless set)")
	fs.IntVar(&f.cacheSize, "cache-size", defaultCacheSize, "maximum number of cached answers")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	f.upstream = defaultUpstream
	f.hostFile = defaultConfigPath
	if len(rest) > 0 {
		f.upstream = rest[0]
	}
	if len(rest) > 1 {
		f.hostFile = rest[1]
	}
	if len(rest) > 2 {
		fmt.Fprintln(os.Stderr, "foxdns: too many positional arguments")
		fs.Usage()
		return 1
	}

	if isLoopbackUpstream(f.upstream) {
		fmt.Fprintf(os.Stderr, "foxdns: upstream %q would loop back to this relay, refusing to start\n", f.upstream)
		return 1
	}

	return runRelay(f)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: foxdns [-d|-dd] [upstream_ip] [config_path]\n\n")
	fmt.Fprintf(os.Stderr, "  upstream_ip   upstream resolver to forward misses to (default %s)\n", defaultUpstream)
	fmt.Fprintf(os.Stderr, "  config_path   host table file, \"ip domain\" per line (default %s)\n\n", defaultConfigPath)
	fs.PrintDefaults()
}

func isLoopbackUpstream(upstream string) bool {
	host := upstream
	if h, _, err := net.SplitHostPort(upstream); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if host == "localhost" {
		return true
	}
	if ip, err := netParseIP(host); err == nil {
		return ip.IsLoopback()
	}
	return false
}

func netParseIP(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("not an IP address: %s", s)
	}
	return ip, nil
}

func runRelay(f cliFlags) int {
	ambient, err := config.Load(f.adminConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
		return 1
	}
	if f.adminAddr != "" {
		ambient.API.Enabled = true
		if host, port, err := net.SplitHostPort(f.adminAddr); err == nil {
			ambient.API.Host = host
			if p, err := strconv.Atoi(port); err == nil {
				ambient.API.Port = int(helpers.ClampIntToUint16(p))
			}
		}
	}
	if f.blocklist != "" {
		ambient.Filtering.BlocklistPath = f.blocklist
	}

	level := "WARN"
	switch {
	case f.verboseDebug:
		level = "DEBUG"
	case f.debug:
		level = "INFO"
	}
	logger := logging.Configure(logging.Config{
		Level:            level,
		Structured:       ambient.Logging.Structured,
		StructuredFormat: pick(ambient.Logging.Format, "text"),
	})

	instanceID := uuid.New().String()[:8]
	logger.Info("foxdns starting", "instance_id", instanceID, "upstream", f.upstream, "host_table", f.hostFile)

	hosts, err := hosttable.Load(f.hostFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
		return 1
	}
	logger.Info("host table loaded", "entries", hosts.Len())

	blocklist := filtering.NewBlocklist()
	if ambient.Filtering.BlocklistPath != "" {
		blocklist, err = filtering.LoadBlocklist(ambient.Filtering.BlocklistPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
			return 1
		}
		logger.Info("blocklist loaded", "entries", blocklist.Size())
	}

	upstreamAddr, err := resolveUpstream(f.upstream)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
		return 1
	}

	clientConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: dnsPort})
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxdns: bind client socket: %v\n", err)
		return 1
	}
	defer clientConn.Close()

	upstreamConn, err := net.ListenUDP("udp", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxdns: open upstream socket: %v\n", err)
		return 1
	}
	defer upstreamConn.Close()

	var limiter, prefixLimiter *relay.TokenBucket
	if ambient.RateLimit.Enabled {
		cleanup := time.Duration(ambient.RateLimit.CleanupSeconds * float64(time.Second))
		limiter = relay.NewTokenBucket(
			ambient.RateLimit.IPQPS,
			ambient.RateLimit.IPBurst,
			ambient.RateLimit.MaxTrackedIPs,
			cleanup,
		)
		prefixLimiter = relay.NewTokenBucket(
			ambient.RateLimit.PrefixQPS,
			ambient.RateLimit.PrefixBurst,
			ambient.RateLimit.MaxTrackedPrefixes,
			cleanup,
		)
	}

	var db *store.DB
	if ambient.Store.Enabled {
		db, err = store.Open(ambient.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
			return 1
		}
		defer db.Close()
		logger.Info("audit store opened", "path", ambient.Store.Path)
	}

	dispatcher := &relay.Dispatcher{
		Logger:        logger,
		ClientConn:    clientConn,
		UpstreamConn:  upstreamConn,
		UpstreamAddr:  upstreamAddr,
		Hosts:         hosts,
		Blocklist:     blocklist,
		Cache:         cache.New(helpers.ClampInt(f.cacheSize, 1, maxCacheSize)),
		Pending:       relay.NewPendingTable(),
		Limiter:       limiter,
		PrefixLimiter: prefixLimiter,
		Stats:         &relay.Stats{},
		InstanceID:    instanceID,
	}
	if db != nil {
		dispatcher.Audit = auditFunc(db, logger)
		dispatcher.Snapshot = snapshotFunc(db, logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if ambient.API.Enabled {
		apiSrv := api.New(ambient, logger, dispatcher, db)
		go func() {
			logger.Info("admin API listening", "addr", apiSrv.Addr())
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Error("admin API stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = apiSrv.Shutdown(shutdownCtx)
		}()
	}

	err = dispatcher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "foxdns: %v\n", err)
		return 1
	}
	logger.Info("foxdns stopped")
	return 0
}

func resolveUpstream(upstream string) (*net.UDPAddr, error) {
	host, port := upstream, strconv.Itoa(dnsPort)
	if h, p, err := net.SplitHostPort(upstream); err == nil {
		host, port = h, p
	}
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve upstream %q: %w", upstream, err)
	}
	return addr, nil
}

func pick(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func auditFunc(db *store.DB, logger *slog.Logger) relay.AuditFunc {
	return func(ev relay.QueryEvent) {
		err := db.RecordQuery(store.AuditRecord{
			ObservedAt: time.Now().Unix(),
			Domain:     ev.Domain,
			QType:      ev.QType,
			Outcome:    ev.Outcome,
			ResolvedIP: ev.IP,
			ClientIP:   ev.ClientIP,
			LatencyMS:  ev.Latency.Milliseconds(),
		})
		if err != nil {
			logger.Debug("audit record write failed", "error", err)
		}
	}
}

func snapshotFunc(db *store.DB, logger *slog.Logger) relay.SnapshotFunc {
	return func(s relay.StatsSnapshot) {
		err := db.RecordSnapshot(store.StatsSnapshot{
			ObservedAt:    time.Now().Unix(),
			QueriesTotal:  s.QueriesTotal,
			CacheHits:     s.CacheHits,
			CacheSize:     s.CacheSize,
			PendingCount:  s.PendingCount,
			UptimeSeconds: int64(s.Uptime.Seconds()),
		})
		if err != nil {
			logger.Debug("stats snapshot write failed", "error", err)
		}
	}
}
