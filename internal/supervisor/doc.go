// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package supervisor runs StorySpot's long-lived services under suture v4.

The tree has three layers so that failures stay local:

	RootSupervisor ("storyspot")
	├── DataSupervisor ("data-layer")
	│   └── IndexGCService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── SyncService
│   └── events.Consumer (gochannel transport only)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing service is restarted with suture's decaying failure counter.
Once FailureThreshold is crossed the layer waits FailureBackoff before the
next restart. The other layers keep running.

Usage in main:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewIndexGCService(idx, cfg.Index.GCInterval))
	tree.AddMessagingService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Service return values follow suture: nil stops the service for good, any
other error triggers a restart, and a canceled context means shutdown.

The badger index and the event publisher are libraries, not services. main
closes them after the tree has stopped.
*/
package supervisor
