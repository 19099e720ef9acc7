package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/trisend/trisend/internal/app/analytics"
	"github.com/trisend/trisend/internal/app/model"
	httpUtil "github.com/trisend/trisend/internal/http/util"
	"github.com/trisend/trisend/internal/infra/geoip"
	infraPrometheus "github.com/trisend/trisend/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	maxUALength     = 250
	directReferer   = "direct"
	unknownLocation = "Unknown"
	unknownCountry  = "XX"

	visitorFilterSize = 1_000_000
	visitorFilterFP   = 0.01
)

// RequestInfo is the request metadata a click is built from. It must hold
// copies, not views into a pooled request.
type RequestInfo struct {
	ForwardedFor string
	RemoteAddr   string
	UserAgent    string
	Referer      string
}

// GeoResolver resolves an IP to a location snapshot.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) geoip.Info
}

// ClickRecorderDeps groups the collaborators of a ClickRecorder.
type ClickRecorderDeps struct {
	Logger *zap.Logger
	Geo    GeoResolver
	Sink   ClickSink
}

// ClickRecorder builds and persists click records off the request path.
type ClickRecorder struct {
	logger *zap.Logger
	geo    GeoResolver
	sink   ClickSink
	now    func() time.Time
	wg     sync.WaitGroup

	visitorsMu sync.Mutex
	visitors   *bloom.BloomFilter
}

// NewClickRecorder creates a recorder.
func NewClickRecorder(deps ClickRecorderDeps) *ClickRecorder {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickRecorder{
		logger:   logger,
		geo:      deps.Geo,
		sink:     deps.Sink,
		now:      time.Now,
		visitors: bloom.NewWithEstimates(visitorFilterSize, visitorFilterFP),
	}
}

// Record starts recording a click in the background and returns at once.
// The outcome is only logged; callers never observe it.
func (r *ClickRecorder) Record(code string, req RequestInfo) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				infraPrometheus.ClickWrites.WithLabelValues("panic").Inc()
				r.logger.Error("click recording panicked",
					zap.String("code", code),
					zap.Error(fmt.Errorf("panic: %v", rec)),
				)
			}
		}()
		r.record(context.Background(), code, req)
	}()
}

// Wait blocks until all in-flight recordings have finished.
func (r *ClickRecorder) Wait() {
	r.wg.Wait()
}

func (r *ClickRecorder) record(ctx context.Context, code string, req RequestInfo) {
	click := r.buildClick(ctx, req)
	r.countVisitor(code, click.IP)

	if err := r.sink.Deliver(ctx, code, click); err != nil {
		infraPrometheus.ClickWrites.WithLabelValues("failed").Inc()
		r.logger.Error("failed to record click",
			zap.String("code", code),
			zap.String("ip", click.IP),
			zap.Error(err),
		)
		return
	}

	infraPrometheus.ClickWrites.WithLabelValues("ok").Inc()
	r.logger.Debug("click recorded",
		zap.String("code", code),
		zap.String("country", click.Country),
		zap.String("device", click.Device),
		zap.String("browser", click.Browser),
	)
}

func (r *ClickRecorder) buildClick(ctx context.Context, req RequestInfo) *model.Click {
	ip := httpUtil.ClientIP(req.ForwardedFor, req.RemoteAddr)
	device, browser := analytics.Classify(req.UserAgent)

	geo := geoip.Unknown
	if r.geo != nil {
		geo = r.geo.Resolve(ctx, ip)
	}

	referer := req.Referer
	if referer == "" {
		referer = directReferer
	}

	return &model.Click{
		ID:          uuid.New().String(),
		IP:          ip,
		Country:     orDefault(geo.Country, unknownLocation),
		CountryCode: orDefault(geo.CountryCode, unknownCountry),
		City:        orDefault(geo.City, unknownLocation),
		Region:      orDefault(geo.Region, unknownLocation),
		Lat:         geo.Lat,
		Lon:         geo.Lon,
		Device:      device,
		Browser:     browser,
		Referer:     referer,
		UA:          truncate(req.UserAgent, maxUALength),
		TS:          r.now().UTC(),
	}
}

func (r *ClickRecorder) countVisitor(code, ip string) {
	r.visitorsMu.Lock()
	seen := r.visitors.TestOrAddString(code + "|" + ip)
	r.visitorsMu.Unlock()
	if !seen {
		infraPrometheus.UniqueVisitors.Inc()
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
