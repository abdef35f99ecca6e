package ingress

import (
	"net/http"

	"github.com/Klingon-tech/klingnet-ledger/internal/wire"
	"github.com/labstack/echo/v4"
)

// handleAdd serves PUT /add?message=... . An empty or missing message
// is rejected with 400; everything else wraps the coordinator's
// SubmitMessage.
func (s *Server) handleAdd(c echo.Context) error {
	message := c.QueryParam("message")
	if message == "" {
		return c.JSON(http.StatusBadRequest, wire.ErrorResponse{Message: "'message' query parameter must not be empty"})
	}

	if err := s.coordinator.SubmitMessage(message); err != nil {
		return c.JSON(http.StatusBadRequest, wire.ErrorResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, wire.AddResponse{
		Message:         "message accepted",
		MoreInformation: "it will be included once mined into a block",
	})
}

// handleChain serves GET /chain, wrapping the chain in {chain, length}.
func (s *Server) handleChain(c echo.Context) error {
	blocks, err := s.coordinator.SnapshotChain()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, wire.ChainResponse{
		Chain:  wire.EncodeBlocks(blocks),
		Length: len(blocks),
	})
}

// handleNeighbours serves GET /neighbours, wrapping the peer set in
// {neighbours, length}.
func (s *Server) handleNeighbours(c echo.Context) error {
	peers, err := s.coordinator.SnapshotPeers()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, wire.NeighboursResponse{
		Neighbours: peers,
		Length:     len(peers),
	})
}

// handleData serves GET /data. Unlike /chain and /neighbours, the
// response is the serialized mempool directly, with no wrapping object.
func (s *Server) handleData(c echo.Context) error {
	envelopes, err := s.coordinator.SnapshotMempool()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, wire.EncodeEnvelopes(envelopes))
}

// handleNotFound serves every path outside the four known routes.
func (s *Server) handleNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, wire.ErrorResponse{Message: "not found"})
}
