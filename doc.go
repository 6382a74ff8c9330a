// Package oneblog is a small blogging backend: users sign up, log in and
// manage their own posts, and can reset a forgotten password with a six
// digit code sent by email.
//
// # Architecture
//
// The core is four pieces that know nothing about HTTP:
//
// PasswordHasher turns passwords into salted digests (BcryptHasher).
//
// SessionTokens issues and verifies HS256 tokens whose only claim is the
// user id. Tokens do not expire unless WithTokenTTL is given.
//
// OTCManager issues, checks and discards reset codes through an OTCStore.
// Issuing a code for an email replaces any code still outstanding for it.
//
// AuthFlows runs Signup, Login, ForgotPassword and ResetPassword and
// returns *Error values carrying a kind, a user facing message and
// optionally the offending field.
//
// BlogService sits next to these and only lets a user list, edit or delete
// blogs whose AuthorEmail equals their own email.
//
// # Storage
//
// Stores are interfaces (UserStore, BlogStore, OTCStore). Implementations:
//
//   - stores: JSON files on local disk, good for development
//   - stores/gorm: any database GORM supports
//   - stores/gae: Google Cloud Datastore
//   - stores/mongo: MongoDB, with a TTL index expiring codes natively
//   - stores/redis: codes only, with key expiry
//
// # Basic Usage
//
//	storagePath := "/path/to/storage"
//	app := oneblog.New("OneBlog")
//	app.Users = stores.NewFSUserStore(storagePath)
//	app.Blogs = stores.NewFSBlogStore(storagePath)
//	app.OTCs = stores.NewFSOTCStore(storagePath)
//	app.JWTSecretKey = os.Getenv("JWT_SECRET")
//	if err := app.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":4000", app.Handler())
//
// # Routes
//
//	GET    /health
//	POST   /signup
//	POST   /login
//	POST   /logout
//	POST   /password/forgot-password
//	POST   /password/reset-password
//	GET    /blogs
//	POST   /blogs/create
//	PATCH  /blogs/edit/{blogID}
//	DELETE /blogs/delete/{blogID}
//
// The /blogs routes need "Authorization: Bearer <token>" or the session
// cookie set by /login.
package oneblog
