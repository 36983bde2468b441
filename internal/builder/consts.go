package builder

import "time"

// pollTimeout bounds Input Stage transport receives and Assembly Stage
// input-queue pops (§4.1, §4.2: both poll with a 2s deadline).
const pollTimeout = 2 * time.Second

// assemblyInactivityTimeout closes and emits an in-progress STF if no
// multipart arrives for this long (§4.2).
const assemblyInactivityTimeout = 2 * time.Second

// maxGapFill is floor(2*nominalStfRate) with nominalStfRate≈43.9Hz (§4.3).
const maxGapFill = 87

// endOfStreamDelay is the wait after sending the end-of-stream record
// before tearing down the output channel (§4.4).
const endOfStreamDelay = 2 * time.Second
