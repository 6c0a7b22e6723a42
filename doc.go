/*
Package brokerdesk is the backend of a multi-tenant disability services brokerage.

Organizations track their clients on a kanban board. Each client sits in one
stage of a pipeline, and moving a client between stages is the central
operation: the move is checked against the pipeline's stage graph, recorded
on the client's timeline, and triggers the automated actions of the target
stage (emails, form preparation, scheduling).

# Architecture

The core lives in pkg/ and follows a hexagonal layout:

  - pkg/domain: entities (Client, Organization, TimelineEvent) and sentinel errors.
  - pkg/stage: stage graphs, validation and the pipeline registry.
  - pkg/pipeline: MoveClientToStage, BulkMove and pipeline assignment.
  - pkg/clients, pkg/organization, pkg/dashboard: the surrounding services.
  - pkg/ports: interfaces for storage, action dispatch and locking.
  - pkg/adapters: memory, file, SQLite and Redis stores; HTTP, MCP and process adapters.

# Usage

The App type wires everything from a configuration:

	cfg, err := config.Load("brokerdesk.yaml")
	if err != nil {
		log.Fatal(err)
	}
	app, err := brokerdesk.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close(ctx)

	c, err := app.Clients.Create(ctx, "org-1", clients.CreateInput{
		PersonalInfo: domain.PersonalInfo{FullName: "Joshua Burt"},
	})
	...
	c, err = app.Pipeline.MoveClientToStage(ctx, "org-1", c.ID, domain.StageClientOnboarding)

Serve the JSON API with app.Handler(), or run the brokerdesk command:

	brokerdesk serve --config brokerdesk.yaml
*/
package brokerdesk
