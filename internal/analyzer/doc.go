// Package analyzer computes session distribution reports.
//
// The analyzer joins the session registry's per-provider counts with the
// provider directory's live metrics, classifies overloaded and underutilized
// providers, and proposes bounded migration opportunities for the
// rebalancer. It works entirely from point-in-time snapshots and tolerates
// stale counts; exactness is not required for load-balancing heuristics.
//
// Analyze never returns an error: it commonly runs unattended from a
// periodic trigger, so internal failures are converted into a
// non-recommending report annotated with the failure reason.
package analyzer
