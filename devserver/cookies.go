package devserver

import "net/http"

// setRefreshCookies writes the HttpOnly refresh cookie and the script
// readable CSRF cookie that must be echoed in the CSRF header.
func (s *Server) setRefreshCookies(w http.ResponseWriter, r *http.Request, token, csrf string) {
	maxAge := int(s.cfg.RefreshTTL.Seconds())
	secure := s.cfg.SecureCookies || r.TLS != nil

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.RefreshCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CSRFCookie,
		Value:    csrf,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookies(w http.ResponseWriter, r *http.Request) {
	secure := s.cfg.SecureCookies || r.TLS != nil

	for _, c := range []struct {
		name     string
		httpOnly bool
	}{
		{s.cfg.RefreshCookie, true},
		{s.cfg.CSRFCookie, false},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: c.httpOnly,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
