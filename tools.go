//go:build tools

package tools

// Nothing to import. The reactor mocks in pkg/reactor/mocks come from the
// mockery v3 binary driven by .mockery.yml; run mockery at the repository
// root after changing the Reactor or Listener interfaces.
