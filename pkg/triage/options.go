package triage

// options holds the policy knobs as pointers so an explicit zero is
// distinguishable from "not set, use the engine default".
type options struct {
	bundleDir          string
	runtimeLib         string
	secondaryThreshold *float64
	maxSecondary       *int
	bandHigh           *float64
	bandLow            *float64
}

// Option configures a Triage instance.
type Option func(*options)

// WithBundleDir sets the directory containing the model artifact bundle
// (manifest.yaml, tfidf.json, ensemble.json, encoder files).
func WithBundleDir(dir string) Option {
	return func(o *options) {
		o.bundleDir = dir
	}
}

// WithRuntimeLib overrides the ONNX Runtime shared library path recorded in
// the bundle manifest. Use this when the runtime is installed system-wide
// instead of shipped inside the bundle.
func WithRuntimeLib(path string) Option {
	return func(o *options) {
		o.runtimeLib = path
	}
}

// WithSecondaryThreshold sets the minimum probability for a category to be
// suggested alongside the primary one. Zero keeps every nonzero category
// eligible. Default when not set: 0.15.
func WithSecondaryThreshold(t float64) Option {
	return func(o *options) {
		o.secondaryThreshold = &t
	}
}

// WithMaxSecondary caps how many secondary categories a prediction may carry.
// Zero disables secondary suggestions. Default when not set: 3.
func WithMaxSecondary(n int) Option {
	return func(o *options) {
		o.maxSecondary = &n
	}
}

// WithBands sets the confidence band boundaries: at or above high the
// prediction is routed automatically, below low it goes to manual triage.
// A low of zero means no prediction falls to manual triage. Default when not
// set: 0.8 and 0.4.
func WithBands(high, low float64) Option {
	return func(o *options) {
		o.bandHigh = &high
		o.bandLow = &low
	}
}

func defaultOptions() options {
	return options{
		bundleDir: "models/current",
	}
}
