package toxiproxy

import (
	"context"
	"errors"
	"net/http"
)

type Attributes map[string]interface{}

// Toxic is the wire form of a toxic. Toxicity is omitted when zero so the
// control plane applies its default of 1.
type Toxic struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Stream     string     `json:"stream,omitempty"`
	Toxicity   float32    `json:"toxicity,omitempty"`
	Attributes Attributes `json:"attributes"`
}

type Toxics []Toxic

// Toxics lists the toxics attached to proxy.
func (client *Client) Toxics(ctx context.Context, proxy string) (Toxics, error) {
	resp, err := client.request(ctx, "Toxics", http.MethodGet, toxicsPath(proxy), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "Toxics"); err != nil {
		return nil, err
	}

	toxics := make(Toxics, 0)
	if err := decode(resp, &toxics, "Toxics"); err != nil {
		return nil, err
	}
	return toxics, nil
}

// AddToxic creates a toxic on proxy. The control plane answers 409 when a
// toxic with the same name exists; that is returned as is (see IsConflict).
func (client *Client) AddToxic(ctx context.Context, proxy string, toxic *Toxic) (*Toxic, error) {
	resp, err := client.request(ctx, "AddToxic", http.MethodPost, toxicsPath(proxy), toxic)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "AddToxic"); err != nil {
		return nil, err
	}

	result := new(Toxic)
	if err := decode(resp, result, "AddToxic"); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateToxic replaces the attributes of an existing toxic.
func (client *Client) UpdateToxic(
	ctx context.Context,
	proxy, name string,
	attrs Attributes,
) (*Toxic, error) {
	body := map[string]interface{}{"attributes": attrs}
	resp, err := client.request(ctx, "UpdateToxic", http.MethodPost, toxicPath(proxy, name), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "UpdateToxic"); err != nil {
		return nil, err
	}

	result := new(Toxic)
	if err := decode(resp, result, "UpdateToxic"); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveToxic deletes the named toxic. Deleting a toxic that does not exist
// succeeds; deleting from a proxy that does not exist does not.
func (client *Client) RemoveToxic(ctx context.Context, proxy, name string) error {
	resp, err := client.request(ctx, "RemoveToxic", http.MethodDelete, toxicPath(proxy, name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	err = checkError(resp, http.StatusNoContent, "RemoveToxic")
	var apiError *ApiError
	if errors.As(err, &apiError) &&
		apiError.Status == http.StatusNotFound &&
		apiError.Message != msgProxyNotFound {
		return nil
	}
	return err
}
