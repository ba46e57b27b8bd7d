package services

import (
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
	"github.com/scanpay/backend/internal/models"
)

// bankBICFI identifies the debtor agent in exported settlement messages.
const bankBICFI = "SCANPAYX"

// SettlementService exports approved bank withdrawals as ISO 20022
// pacs.008 credit transfer messages for the settlement desk.
type SettlementService struct {
	withdrawals *WithdrawalService
}

func NewSettlementService(withdrawals *WithdrawalService) *SettlementService {
	return &SettlementService{withdrawals: withdrawals}
}

// ExportWithdrawal serves the pacs.008 XML for a single approved bank
// withdrawal, identified by its wdh_ id.
func (s *SettlementService) ExportWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		SendErrorResponse(w, "Withdrawal ID is required", http.StatusBadRequest, nil)
		return
	}

	withdrawal, err := s.withdrawals.GetApproved(r.Context(), id)
	if err != nil {
		log.Printf("[SETTLEMENT] Lookup failed for %s: %v", id, err)
		SendErrorResponse(w, "Failed to fetch withdrawal", http.StatusInternalServerError, nil)
		return
	}
	if withdrawal == nil {
		SendErrorResponse(w, "Withdrawal request not found", http.StatusNotFound, nil)
		return
	}
	if withdrawal.Status != models.WithdrawalStatusApproved {
		SendErrorResponse(w, "Withdrawal is not approved", http.StatusConflict, nil)
		return
	}
	if withdrawal.Mode != models.WithdrawalModeBank {
		SendErrorResponse(w, "Settlement export requires a bank withdrawal", http.StatusBadRequest, nil)
		return
	}

	doc, err := s.CreatePacs008(withdrawal)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	xmlData, err := s.ConvertToXML(doc)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xmlData))
}

// CreatePacs008 builds a pacs.008 FIToFICustomerCreditTransfer message for
// an approved bank withdrawal. The UTR assigned at approval becomes the
// end-to-end id; the beneficiary IFSC travels as the creditor agent's
// clearing system member id.
func (s *SettlementService) CreatePacs008(wd *models.WithdrawalRequest) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	if wd.IfscCode == "" || wd.AccountNumber == "" {
		return nil, fmt.Errorf("withdrawal %s has incomplete bank details", wd.ID)
	}

	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := time.Now()
	amount := float64(wd.Amount) / 100

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode("INR"),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(wd.ID)}[0],
					EndToEndId: common.Max35Text(wd.UtrNumber),
					TxId:       &[]common.Max35Text{common.Max35Text(wd.ID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode("INR"),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(bankBICFI)}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text("ScanPay Collections")}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						ClrSysMmbId: &pacs_v08.ClearingSystemMemberIdentification2{
							MmbId: common.Max35Text(wd.IfscCode),
						},
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(wd.HolderName)}[0],
				},
			},
		},
	}

	return doc, nil
}

// ConvertToXML marshals an ISO 20022 document to an XML string.
func (s *SettlementService) ConvertToXML(doc interface{}) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
