package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

var handlePattern = regexp.MustCompile(`^@[A-Za-z0-9._]{1,30}$`)

// ValidHandle reports whether handle has the platform's "@name" shape.
func ValidHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// NormalizeHandle trims input and adds the leading "@" when missing. Case is preserved
// because ledger records store handles exactly as the student picked them.
func NormalizeHandle(raw string) (string, error) {
	handle := strings.TrimSpace(raw)
	if handle != "" && !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	if !ValidHandle(handle) {
		return "", appErrors.Clone(appErrors.ErrInvalidHandle, "handle must look like @name (letters, digits, '.' or '_', max 30)")
	}
	return handle, nil
}

// PipelineConfig tunes the aggregation stages.
type PipelineConfig struct {
	// TokenDecimals converts escrow amounts from smallest units into payouts.
	TokenDecimals int32
	// NormalizeLocations trims surrounding whitespace from locations before grouping.
	// Off by default: locations are otherwise compared exactly, so "Vake Park" and
	// "Vake Park " form separate groups.
	NormalizeLocations bool
}

// PipelineResult is everything a teacher dashboard renders.
type PipelineResult struct {
	Opportunities   []models.GroupedOpportunity
	UpcomingClasses []models.AcceptedClass
	ClassHistory    []models.AcceptedClass
}

// Pipeline turns a raw escrow snapshot into teacher views. It holds no state between
// runs and is safe for concurrent use.
type Pipeline struct {
	cfg PipelineConfig
}

// NewPipeline constructs a pipeline. Negative decimals are treated as zero.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.TokenDecimals < 0 {
		cfg.TokenDecimals = 0
	}
	return &Pipeline{cfg: cfg}
}

// Run executes extract→group and classify→virtualize over one snapshot.
func (p *Pipeline) Run(records []models.RawEscrow, handle string, now time.Time) PipelineResult {
	opportunities := p.GroupOpportunities(p.ExtractOpportunities(records, handle, now))
	upcoming, history := p.ClassifyClasses(records, handle, now)
	return PipelineResult{
		Opportunities:   opportunities,
		UpcomingClasses: p.VirtualizeGroups(upcoming),
		ClassHistory:    history,
	}
}

// groupKey identifies a (location, time) bucket. A struct key avoids the collisions a
// "location-time" string allows, e.g. location "a-" at 1 against location "a" at -1.
type groupKey struct {
	location string
	unix     int64
}

func (p *Pipeline) keyFor(location string, at time.Time) groupKey {
	if p.cfg.NormalizeLocations {
		location = strings.TrimSpace(location)
	}
	return groupKey{location: location, unix: at.Unix()}
}

// String renders the key in the "location-unix" form clients use as a list key.
func (k groupKey) String() string {
	return k.location + "-" + strconv.FormatInt(k.unix, 10)
}
