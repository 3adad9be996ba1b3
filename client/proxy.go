package toxiproxy

type Proxy struct {
	Name     string `json:"name"`     // The name of the proxy
	Listen   string `json:"listen"`   // The address the proxy listens on
	Upstream string `json:"upstream"` // The upstream address to proxy to
	Enabled  bool   `json:"enabled"`  // Whether the proxy is enabled

	ActiveToxics Toxics `json:"toxics"` // The toxics active on this proxy
}

// Toxic returns the active toxic with the given name, or nil.
func (proxy *Proxy) Toxic(name string) *Toxic {
	for i := range proxy.ActiveToxics {
		if proxy.ActiveToxics[i].Name == name {
			return &proxy.ActiveToxics[i]
		}
	}
	return nil
}
