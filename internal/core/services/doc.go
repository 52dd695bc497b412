// Package services implements the driving port interfaces.
// Services contain the pipeline's business logic - discovery aggregation,
// platform detection, scoring, priority updates and run orchestration -
// and reach infrastructure only through the driven ports.
package services
