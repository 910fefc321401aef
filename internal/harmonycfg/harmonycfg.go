// Package harmonycfg is the sole place a string-keyed configuration map
// meets the typed strategy.Config a search strategy actually consumes. It
// mirrors the validation performed by strategy_cfg/config_strategy in the
// original plugin loader: same keys, same defaults, same error strings
// shape (now returned as error values instead of writing to a message
// struct).
package harmonycfg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BabaYara/harmony/strategy"
)

// Map is the string-keyed configuration the host pipeline hands a strategy,
// mirroring hcfg_t's (key, value) environment.
type Map map[string]string

func (m Map) get(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func (m Map) bool(key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func parseFloat(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, strategy.ConfigError{Key: key, Reason: "not a real number: " + val}
	}
	return f, nil
}

func parseInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, strategy.ConfigError{Key: key, Reason: "not an integer: " + val}
	}
	return n, nil
}

// common parses the configuration keys PRO and ANGEL share: the four
// simplex transform coefficients, the rejection method, the initial point,
// and the random seed. Its defaults are the ones PRO and ANGEL agree on;
// the convergence tolerances, whose handling differs between the two, are
// parsed by ParsePRO and ParseANGEL themselves.
func common(m Map, cfg *strategy.Config) error {
	var err error

	cfg.Reflect, err = parseFloat(keyReflect, m.get(keyReflect, "1.0"))
	if err != nil {
		return err
	}
	if cfg.Reflect <= 0 {
		return strategy.ConfigError{Key: keyReflect, Reason: "must be greater than 0"}
	}

	cfg.Expand, err = parseFloat(keyExpand, m.get(keyExpand, "2.0"))
	if err != nil {
		return err
	}
	if cfg.Expand <= cfg.Reflect {
		return strategy.ConfigError{Key: keyExpand, Reason: "must be greater than " + keyReflect}
	}

	cfg.Contract, err = parseFloat(keyContract, m.get(keyContract, "0.5"))
	if err != nil {
		return err
	}
	if cfg.Contract <= 0 || cfg.Contract >= 1 {
		return strategy.ConfigError{Key: keyContract, Reason: "must be strictly between 0 and 1"}
	}

	cfg.Shrink, err = parseFloat(keyShrink, m.get(keyShrink, "0.5"))
	if err != nil {
		return err
	}
	if cfg.Shrink <= 0 || cfg.Shrink >= 1 {
		return strategy.ConfigError{Key: keyShrink, Reason: "must be strictly between 0 and 1"}
	}

	switch strings.ToLower(m.get(keyRejectMethod, "penalty")) {
	case "penalty":
		cfg.Reject = strategy.RejectPenalty
	case "random":
		cfg.Reject = strategy.RejectRandom
	default:
		return strategy.ConfigError{Key: keyRejectMethod, Reason: "must be penalty or random"}
	}

	cfg.InitPointText = m.get(keyInitPoint, "")

	if seed, ok := m[keyRandomSeed]; ok {
		n, err := parseInt(keyRandomSeed, seed)
		if err != nil {
			return err
		}
		cfg.RandomSeed = uint64(n)
		cfg.HasRandomSeed = true
	}

	return nil
}

// Configuration keys, named after the original plugins' CFGKEY_* strings.
const (
	keyInitPoint    = "INIT_POINT"
	keyReflect      = "REFLECT"
	keyExpand       = "EXPAND"
	keyContract     = "CONTRACT"
	keyShrink       = "SHRINK"
	keyRejectMethod = "REJECT_METHOD"
	keyRandomSeed   = "RANDOM_SEED"

	keyFvalTol = "FVAL_TOL"
	keySizeTol = "SIZE_TOL"
	keyDistTol = "DIST_TOL"
	keyTolCnt  = "TOL_CNT"

	keyProInitMethod  = "PRO_INIT_METHOD"
	keyProInitPercent = "PRO_INIT_PERCENT"
	keyProSimplexSize = "PRO_SIMPLEX_SIZE"

	keyInitRadius = "INIT_RADIUS"
	keyPerfCount  = "PERF_COUNT"

	keyAngelLoose       = "ANGEL_LOOSE"
	keyAngelMult        = "ANGEL_MULT"
	keyAngelAnchor      = "ANGEL_ANCHOR"
	keyAngelSameSimplex = "ANGEL_SAMESIMPLEX"
	keyAngelLeeway      = "ANGEL_LEEWAY"

	keyPasses = "PASSES"
)

// ParsePRO builds a strategy.Config for the PRO strategy from m, applying
// PRO's own defaults (init_percent 0.35, etc.) and validation.
func ParsePRO(m Map) (strategy.Config, error) {
	var cfg strategy.Config
	if err := common(m, &cfg); err != nil {
		return cfg, err
	}

	cfg.PerfCount = 1
	cfg.DistTol = math.NaN()

	switch strings.ToLower(m.get(keyProInitMethod, "point")) {
	case "point":
		cfg.InitMethod = strategy.InitPoint
	case "point_fast":
		cfg.InitMethod = strategy.InitPointFast
	case "random":
		cfg.InitMethod = strategy.InitRandom
	default:
		return cfg, strategy.ConfigError{Key: keyProInitMethod, Reason: "must be point, point_fast, or random"}
	}

	percent, err := parseFloat(keyProInitPercent, m.get(keyProInitPercent, "0.35"))
	if err != nil {
		return cfg, err
	}
	if percent <= 0 || percent > 1 {
		return cfg, strategy.ConfigError{Key: keyProInitPercent, Reason: "must be in (0, 1]"}
	}
	cfg.InitRadius = percent

	if v, ok := m[keyProSimplexSize]; ok {
		n, err := parseInt(keyProSimplexSize, v)
		if err != nil {
			return cfg, err
		}
		if n < 2 {
			return cfg, strategy.ConfigError{Key: keyProSimplexSize, Reason: "must be at least 2"}
		}
		cfg.ProSimplexSize = n
	}

	fvTol, err := parseFloat(keyFvalTol, m.get(keyFvalTol, "0.0001"))
	if err != nil {
		return cfg, err
	}
	cfg.FvalTol = fvTol

	// PRO's size tolerance defaults to 0.5% of the space diameter, a value
	// only known once Init sees the space; SizeTol stays at its zero value
	// here and the PRO strategy fills it in at Init if the key was unset.
	if v, ok := m[keySizeTol]; ok {
		szTol, err := parseFloat(keySizeTol, v)
		if err != nil {
			return cfg, err
		}
		cfg.SizeTol = szTol
	}

	return cfg, nil
}

// ParseANGEL builds a strategy.Config for the ANGEL strategy from m,
// applying ANGEL's own defaults (init radius 0.50, etc.) and validation.
// perfCount is the number of objectives the caller's search is optimizing,
// supplied out of band because ANGEL_LEEWAY's required length depends on
// it and PERF_COUNT in the original plugin is itself a configuration key.
func ParseANGEL(m Map, perfCount int) (strategy.Config, error) {
	var cfg strategy.Config
	if err := common(m, &cfg); err != nil {
		return cfg, err
	}

	if perfCount < 1 {
		return cfg, strategy.ConfigError{Key: keyPerfCount, Reason: "must be at least 1"}
	}
	cfg.PerfCount = perfCount
	cfg.InitMethod = strategy.InitPoint

	radius, err := parseFloat(keyInitRadius, m.get(keyInitRadius, "0.50"))
	if err != nil {
		return cfg, err
	}
	if radius <= 0 {
		return cfg, strategy.ConfigError{Key: keyInitRadius, Reason: "must be greater than 0"}
	}
	cfg.InitRadius = radius

	cfg.AngelLoose = m.bool(keyAngelLoose, false)
	cfg.AngelAnchor = m.bool(keyAngelAnchor, true)
	cfg.AngelSameSimplex = m.bool(keyAngelSameSimplex, true)

	mult, err := parseFloat(keyAngelMult, m.get(keyAngelMult, "1.0"))
	if err != nil {
		return cfg, err
	}
	cfg.AngelMult = mult

	distTolStr, hasDistTol := m[keyDistTol]
	_, hasFvalTol := m[keyFvalTol]
	_, hasSizeTol := m[keySizeTol]
	if hasDistTol && (hasFvalTol || hasSizeTol) {
		return cfg, strategy.ConfigError{
			Key:    keyDistTol,
			Reason: fmt.Sprintf("cannot be combined with %s or %s", keyFvalTol, keySizeTol),
		}
	}

	cfg.DistTol = math.NaN()
	if hasDistTol {
		dt, err := parseFloat(keyDistTol, distTolStr)
		if err != nil {
			return cfg, err
		}
		cfg.DistTol = dt

		cfg.TolCnt, err = parseInt(keyTolCnt, m.get(keyTolCnt, "3"))
		if err != nil {
			return cfg, err
		}
		if cfg.TolCnt < 1 {
			return cfg, strategy.ConfigError{Key: keyTolCnt, Reason: "must be at least 1"}
		}
	} else {
		fv, err := parseFloat(keyFvalTol, m.get(keyFvalTol, "0.0001"))
		if err != nil {
			return cfg, err
		}
		cfg.FvalTol = fv

		sz, err := parseFloat(keySizeTol, m.get(keySizeTol, "0.005"))
		if err != nil {
			return cfg, err
		}
		cfg.SizeTol = sz
	}

	if perfCount > 1 {
		raw, ok := m[keyAngelLeeway]
		if !ok {
			return cfg, strategy.ConfigError{Key: keyAngelLeeway, Reason: "must be defined when PERF_COUNT > 1"}
		}
		fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
		if len(fields) != perfCount-1 {
			return cfg, strategy.ConfigError{
				Key:    keyAngelLeeway,
				Reason: fmt.Sprintf("must have exactly %d values for PERF_COUNT=%d", perfCount-1, perfCount),
			}
		}
		cfg.AngelLeeway = make([]float64, len(fields))
		for i, f := range fields {
			v, err := parseFloat(keyAngelLeeway, f)
			if err != nil {
				return cfg, err
			}
			cfg.AngelLeeway[i] = v
		}
	}

	return cfg, nil
}

// ParseExhaustive builds a strategy.Config for the Exhaustive baseline
// strategy from m. Unlike PRO and ANGEL, Exhaustive and Random have no
// simplex transform coefficients or rejection policy to parse, so this
// bypasses common and only reads the keys the two baselines actually use.
func ParseExhaustive(m Map) (strategy.Config, error) {
	var cfg strategy.Config
	cfg.InitPointText = m.get(keyInitPoint, "")

	passes, err := parseInt(keyPasses, m.get(keyPasses, "1"))
	if err != nil {
		return cfg, err
	}
	if passes < 0 {
		return cfg, strategy.ConfigError{Key: keyPasses, Reason: "must be non-negative"}
	}
	cfg.ExhaustivePasses = passes

	return cfg, nil
}

// ParseRandom builds a strategy.Config for the Random baseline strategy
// from m.
func ParseRandom(m Map) (strategy.Config, error) {
	var cfg strategy.Config
	cfg.InitPointText = m.get(keyInitPoint, "")

	if seed, ok := m[keyRandomSeed]; ok {
		n, err := parseInt(keyRandomSeed, seed)
		if err != nil {
			return cfg, err
		}
		cfg.RandomSeed = uint64(n)
		cfg.HasRandomSeed = true
	}

	return cfg, nil
}
