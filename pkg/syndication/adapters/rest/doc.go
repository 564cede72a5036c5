// Package rest provides an ExternalConnection that syndicates items to a
// remote repository over its REST API.
//
// # Routes
//
// Item collections are resolved in this order:
//
//  1. a collection cached for the post type by a previous types lookup
//  2. a collection cached for the type's REST base from the API index
//  3. the remote types index at {base}/types, whose wp:items links are all
//     cached
//  4. {base}/{rest_base}
//
// A single item lives at {collection}/{id}. Cached routes expire after
// Config.CacheTTL.
//
// # Protocol Detection
//
// Remotes that run the same syndication software answer with an
// X-Distributor header or advertise the https://distributor.io/api link
// relation. Against such remotes a push also registers a subscription so the
// remote receives later updates, and a pull imports meta, terms and media.
// Other remotes still accept plain pushes and serve plain pulls.
//
// # Configuration Example
//
//	connection "newsroom" {
//	  id       = 2
//	  type     = "rest"
//	  base_url = "https://newsroom.example.com/wp-json/wp/v2"
//	  timeout  = "30s"
//
//	  auth {
//	    method   = "basic"
//	    username = "syndicator"
//	    password = env("NEWSROOM_PASSWORD")
//	  }
//	}
package rest
