package oauth

import "golang.org/x/oauth2"

// GoogleEndpoint is the Google OAuth2 authorization and token endpoint pair.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// ZoomEndpoint is the Zoom OAuth2 authorization and token endpoint pair.
var ZoomEndpoint = oauth2.Endpoint{
	AuthURL:  "https://zoom.us/oauth/authorize",
	TokenURL: "https://zoom.us/oauth/token",
}

// GoogleScopeAliases maps the short scope names accepted on the
// authorization route to full Google API scopes.
var GoogleScopeAliases = map[string]string{
	"calendar": "https://www.googleapis.com/auth/calendar.events",
	"drive":    "https://www.googleapis.com/auth/drive.file",
	"contacts": "https://www.googleapis.com/auth/contacts.readonly",
	"gmail":    "https://www.googleapis.com/auth/gmail.send",
}

// GoogleAuthCodeOptions requests offline access with forced consent so
// the exchange returns a refresh token.
var GoogleAuthCodeOptions = []oauth2.AuthCodeOption{
	oauth2.AccessTypeOffline,
	oauth2.SetAuthURLParam("prompt", "consent"),
}
