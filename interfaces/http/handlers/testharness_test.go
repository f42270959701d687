package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/audit"
	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/infrastructure/config"
	"github.com/trellis-ldp/trellis-core/infrastructure/constraint"
	"github.com/trellis-ldp/trellis-core/infrastructure/messaging"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/binary"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/triplestore"
	"github.com/trellis-ldp/trellis-core/infrastructure/rdfio"
	"github.com/trellis-ldp/trellis-core/interfaces/http/handlers"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
)

const testBaseURL = "http://example.org"

// newTestHandlers builds a Handlers wired over real, in-process
// collaborators (an in-memory triplestore, a temp-dir binary store, a
// nil-transport event dispatcher) rather than mocks — the same
// lightweight-real-dependency style pipeline_test.go already
// establishes for this module.
func newTestHandlers(t *testing.T) *handlers.Handlers {
	t.Helper()

	conn := triplestore.NewMemoryConnection()
	resourceSvc := triplestore.NewServiceWithOptions(conn, true)
	if err := resourceSvc.Initialize(context.Background(), rdf.IRI("trellis:data/")); err != nil {
		t.Fatalf("bootstrapping root container: %v", err)
	}

	binarySvc, err := binary.New(t.TempDir())
	if err != nil {
		t.Fatalf("opening binary store: %v", err)
	}

	logger := zap.NewNop()
	dispatcher := messaging.NewDispatcher(nil, logger)
	emitter := eventing.NewEmitter(dispatcher, resourceSvc.Touch)

	cfg := &config.Config{
		WeakETagsAlways:      true,
		VersioningEnabled:    true,
		IncludeMementoDates:  true,
		IncludeLDPTypeInBody: true,
		ExtensionGraphs:      config.ExtensionGraphs{"acl": rdf.PreferAccessControl},
	}

	return handlers.New(handlers.Deps{
		Resource:   resourceSvc,
		Binary:     binarySvc,
		IO:         rdfio.New(),
		Constraint: constraint.New(),
		Audit:      audit.New(),
		Events:     emitter,
		Config:     cfg,
		Logger:     logger,
		BaseURL:    testBaseURL,
	})
}

// newReq parses an httptest.NewRequest into an *httpreq.Request the way
// interfaces/http/rest.Router's serveLDP does, against an extension
// allow-list of acl, timemap, audit and description.
func newReq(t *testing.T, method, target string, headers map[string]string) *httpreq.Request {
	t.Helper()

	r := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	req, err := httpreq.Parse(r, map[string]bool{"acl": true, "timemap": true, "audit": true, "description": true})
	if err != nil {
		t.Fatalf("parsing request: %v", err)
	}
	return req
}
