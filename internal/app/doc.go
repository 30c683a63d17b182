// Package app composes the protocol services into a running application.
//
// The layout follows a composition-over-business-logic split:
//
//	internal/app/
//	├── application.go   # Application struct, wiring, and lifecycle
//	├── domain/          # Domain models (pure data structures)
//	├── storage/         # Store interfaces plus memory and postgres backends
//	├── services/        # Business logic (vault, lottery, airdrop, vesting, ...)
//	├── httpapi/         # HTTP handlers, routing, and auth middleware
//	├── ledger/          # External token ledger abstraction
//	├── oracle/          # Verifiable randomness abstraction
//	├── system/          # Lifecycle management
//	└── metrics/         # Prometheus instrumentation
//
// Services never touch HTTP or SQL directly: handlers translate requests into
// service calls, and services persist through the storage interfaces.
package app
