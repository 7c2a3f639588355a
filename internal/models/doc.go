// Package models defines domain entities and persistence interfaces for the rosync roster reconciliation service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external data
//   - [Member] : Normalized member record derived from one roster CSV row
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [SyncRun] : Outcome of one reconciliation run (counts, timestamps, errors)
//
// Persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
