// Package triage provides an issue classification engine that scores issue
// reports against a trained category model and recommends a routing action.
//
// Quick start:
//
//	tr, err := triage.New(triage.WithBundleDir("models/current"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	pred, _ := tr.Classify("App crashes on launch", "Happens on every cold start.", "acme/mobile-app")
//	fmt.Println(pred.Primary.Category, pred.Recommendation) // bug auto-route
//
// The Triage instance is safe for concurrent use. Create once, reuse across
// requests.
package triage
