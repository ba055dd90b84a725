package manifest

import (
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/veyucu/fastits/internal/domain"
)

var (
	ErrNoTransferElement = errors.New("manifest: transfer element not found")
	ErrBadTransferID     = errors.New("manifest: missing or invalid transferId")
)

const documentDateLayout = "2006-01-02"

// DecodeTransferPackage inflates the zlib payload the traceability service
// delivers per transfer and parses the transfer-package XML inside it.
func DecodeTransferPackage(r io.Reader) (*domain.ShipmentHeader, []Node, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest: open compressed payload: %w", err)
	}
	defer zr.Close()
	return ParseTransfer(zr)
}

// ParseTransfer tokenizes an uncompressed transfer-package document into
// the shipment header and the carrier tree. Only the elements needed to
// reconstruct the hierarchy are read; everything else is ignored rather
// than validated.
func ParseTransfer(r io.Reader) (*domain.ShipmentHeader, []Node, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest: parse xml: %w", err)
	}
	root := xmlquery.FindOne(doc, "//transfer")
	if root == nil {
		return nil, nil, ErrNoTransferElement
	}

	header, err := parseHeader(root)
	if err != nil {
		return nil, nil, err
	}

	var roots []Node
	for _, el := range xmlquery.Find(root, "carrier") {
		roots = append(roots, parseCarrier(el))
	}
	return header, roots, nil
}

func parseHeader(root *xmlquery.Node) (*domain.ShipmentHeader, error) {
	idText := strings.TrimSpace(childText(root, "transferId"))
	transferID, err := strconv.ParseUint(idText, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadTransferID, idText)
	}

	h := &domain.ShipmentHeader{
		TransferID:       transferID,
		DocumentNumber:   childText(root, "documentNumber"),
		SourceLocationID: childText(root, "sourceGLN"),
		DestLocationID:   childText(root, "destinationGLN"),
		ActionType:       childText(root, "actionType"),
		ShipToID:         childText(root, "shipTo"),
		Note:             childText(root, "note"),
		FormatVersion:    root.SelectAttr("version"),
	}
	if raw := strings.TrimSpace(childText(root, "documentDate")); raw != "" {
		if d, err := time.Parse(documentDateLayout, raw); err == nil {
			h.DocumentDate = &d
		}
	}
	return h, nil
}

func parseCarrier(el *xmlquery.Node) Node {
	n := Node{
		ContainerLabel: strings.TrimSpace(el.SelectAttr("carrierLabel")),
		ContainerType:  strings.TrimSpace(el.SelectAttr("containerType")),
	}
	for _, pl := range xmlquery.Find(el, "productList") {
		g := UnitGroup{
			ProductCode:         strings.TrimSpace(pl.SelectAttr("GTIN")),
			ExpirationDate:      strings.TrimSpace(pl.SelectAttr("expirationDate")),
			ProductionDate:      strings.TrimSpace(pl.SelectAttr("productionDate")),
			LotNumber:           strings.TrimSpace(pl.SelectAttr("lotNumber")),
			PurchaseOrderNumber: strings.TrimSpace(pl.SelectAttr("orderNumber")),
		}
		for _, sn := range xmlquery.Find(pl, "serialNumber") {
			if v := strings.TrimSpace(sn.InnerText()); v != "" {
				g.SerialNumbers = append(g.SerialNumbers, v)
			}
		}
		n.Groups = append(n.Groups, g)
	}
	for _, child := range xmlquery.Find(el, "carrier") {
		n.Children = append(n.Children, parseCarrier(child))
	}
	return n
}

func childText(el *xmlquery.Node, name string) string {
	if c := xmlquery.FindOne(el, name); c != nil {
		return strings.TrimSpace(c.InnerText())
	}
	return ""
}
