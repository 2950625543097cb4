// Package utils provides shared low-level helpers used by the vendor
// adapters: HTTP helpers for opening SSE transports ([DoPostStream]) and for
// long-running task status checks ([DoGetSync]), resource cleanup
// ([CloseWithLog]), and small value helpers ([TruncateString], [Ptr],
// [RepairJSON]).
package utils
