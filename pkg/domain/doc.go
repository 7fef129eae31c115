package domain

// domain package contains the Domain Models and Interfaces for the campaign
// management core.
//
// `domain/cmservice` package exposes the root object for the application.
// Entrypoints should instantiate the CmService object and use it to interact
// with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and
// functions. For example, `domain/element.go` contains the `Element` entity.
//
// `domain/ENTITY` directory contains the "physical" representation of the
// domain entities, the RDB or the workload management system (WMS).
// For example, `domain/element/db` contains the database expression of the
// element entity described in `domain/element.go`.
//
// # Entities
//
// Core entities in the domain are:
//
// - `element`: one node of a campaign tree. Campaigns contain steps, steps
// contain groups, groups contain jobs, and jobs contain scripts (the leaves,
// executed on the WMS). Every element carries a status; composite statuses
// are folds over children, recomputed in "loops" (see `cmd/loops/tasks/`).
//
// - `specification`: named blocks of configuration templates. Elements are
// instantiated from spec blocks; a block's child_config and script templates
// drive eager child creation when an element starts running.
//
// - `queue`: recheck schedule for dispatched scripts. The "polling loop"
// picks due entries and asks the WMS for progress.
//
// - `report`: WMS task-count snapshots, monotonically merged task/product
// counter sets, and classified pipetask error rows.
//
// And others:
//
// - `activity`: append-only log of status transitions.
//
// - `wms`: contract to the workload management system (submit, status,
// cancel), with a Kubernetes batch/v1 Job adapter.
//
// - `loop`: constants naming each recurring loop. Implementation of the
// loops is in the `cmd/loops/tasks/` directory.
