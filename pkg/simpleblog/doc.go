// Package simpleblog provides the core of a blog-style content-management
// admin panel: post and category lifecycle, many-to-many tagging, and a
// content-addressed cover image store with deduplication, all behind a
// role-gated authorization guard.
//
// Basic usage:
//
//	svc, err := simpleblog.New(
//		simpleblog.WithRepository(memory.New()),
//		simpleblog.WithBlobStore("memory", memorystorage.New()),
//		simpleblog.WithIdentityProvider(provider),
//	)
//
// Storage backends live under storage/ (memory, fs, s3), repositories under
// repo/ (memory, sqlite, postgres), and the HTTP surface under api/.
package simpleblog
