/*
Package domain contains the core models of the brokerage backend.

It defines the entities that flow through the pipeline board: Stages and their
configuration, Clients with their Case and Timeline, Organizations, users and
invites. This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - StageConfig: Static metadata and transition rules for one pipeline Stage.
  - Client: A person served by an organization, sitting in exactly one Stage.
  - TimelineEvent: An immutable, append-only record of what happened to a Client.
  - Organization: The tenant that owns clients, employees and invites.
*/
package domain
