package server

import (
	"net/http"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/auth"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpAuthRegister(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	req := request{}
	www.ReadJSON(w, r, &req, 64*1024)
	www.Check(s.auth.CreateUser(req.Email, req.Password))
	www.SendOK(w)
}

func (s *Server) httpAuthLogin(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.auth.Login(w, r)
}

func (s *Server) httpAuthLogout(w http.ResponseWriter, r *http.Request, params httprouter.Params, cred *auth.Credentials) {
	s.auth.Logout(w, r, cred)
}

func (s *Server) httpAuthCheck(w http.ResponseWriter, r *http.Request, params httprouter.Params, cred *auth.Credentials) {
	type response struct {
		UserID int64 `json:"userID"`
	}
	www.SendJSON(w, response{UserID: cred.UserID})
}
