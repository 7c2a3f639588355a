// Package services implements clients for the three external collaborators of
// the sync job.
//
//   - [SheetFeed] : HTTP GET of the published spreadsheet CSV, with an
//     optional cache-busting query parameter
//   - [NotionStore] : record store client over the Notion pages API with
//     cursor pagination and typed error mapping
//   - [MailgunMailer] : multipart form POST with basic auth for the outbound
//     contact bundle
//
// All clients take a context on every call and wrap failures with the
// sentinel errors from internal/shared so callers can classify them.
package services
