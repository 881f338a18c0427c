package service

// Generation modalities recognized by the origination API.
const (
	ModalityAutoLocal     = "AUTO_LOCAL"
	ModalityAutoRemoto    = "AUTO_REMOTO"
	ModalityCompartilhada = "COMPARTILHADA"
	ModalityMUC           = "MUC"
)

// UCTypeCondMUC marks a condominium with multiple consumer units.
const UCTypeCondMUC = "COND_MUC"

// DetermineModality picks the generation modality for a consumer unit.
// Condominium units always resolve to MUC, regardless of roof or the
// number of units held by the titleholder.
func DetermineModality(ucType string, hasRoof, multipleUCs bool) string {
	if ucType == UCTypeCondMUC {
		return ModalityMUC
	}
	if !hasRoof {
		return ModalityCompartilhada
	}
	if multipleUCs {
		return ModalityAutoRemoto
	}
	return ModalityAutoLocal
}
