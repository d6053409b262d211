package http

import (
	"net/http"
	"strconv"

	"billreminder/internal/log"
	"billreminder/internal/middleware/auth"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())

	bills, err := s.bills.ListBills(r.Context(), owner.ID)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(newBillResponses(bills, s.today())).Write(w)
}

func (s *Server) handleNewBill(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.bills.NewBillTemplate(s.today())).Write(w)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	id, err := ParseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	b, err := s.bills.GetBill(r.Context(), owner.ID, id)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(newBillResponse(b, s.today())).Write(w)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())

	in, err := NewRequestBodyParser(w, r).BillInput()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	b, err := s.bills.CreateBill(r.Context(), owner, in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/bills/"+strconv.FormatInt(b.ID, 10)).
		JSON(newBillResponse(b, s.today())).
		Write(w)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	id, err := ParseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	in, err := NewRequestBodyParser(w, r).BillInput()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	b, err := s.bills.UpdateBill(r.Context(), owner.ID, id, in)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().JSON(newBillResponse(b, s.today())).Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	id, err := ParseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}

	if err := s.bills.DeleteBill(r.Context(), owner.ID, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
