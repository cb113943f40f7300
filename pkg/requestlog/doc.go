// Package requestlog records the request/response pairs served by mocked services so tests can
// inspect them afterwards.
//
// Entries are kept in a Store. Each service sees its own calls through a Scoped view, which
// is what Service.Spy returns:
//
//	store := requestlog.NewInMemory(1000)
//	petstore := requestlog.Scoped(store, "petstore")
//	petstore.Log(&requestlog.Entry{Method: "GET", Path: "/v1/pets", ResponseStatus: 200})
//
//	failed := petstore.List(&requestlog.Filter{Where: "ResponseStatus >= 400"})
//
// This package is distinct from operational logging, which uses log/slog.
package requestlog
