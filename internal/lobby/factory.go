package lobby

// Factory builds and registers lobbies. Implemented at process wiring
// so the transport layers never see the registry glue; there are no
// package-level singletons.
type Factory interface {
	CreateGame(name, password string) *GameLobby
	CreateTournament(name, password string, maxPlayers int) (*TournamentLobby, error)
}
