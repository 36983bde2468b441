package aggregator

import "errors"

// errSourceMissingTf is returned by pullSource when a source reports
// SendStfResponse.Present == false — it never received the TimeFrame
// being pulled, which the build thread treats the same as any other
// per-source pull failure (§4.7, §7 "partial failure").
var errSourceMissingTf = errors.New("aggregator: source has no data for requested tf")
