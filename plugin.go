package store

import "fmt"

// Plugin extends a registry. Plugins are keyed by name; installing the
// same name twice is a no-op with a warning. A plugin may additionally
// implement Installer and StoreHook.
type Plugin interface {
	Name() string
}

// Installer is implemented by plugins that need a one-time hook at Use
// time.
type Installer interface {
	Install(registry *Registry) error
}

// StoreHook is implemented by plugins that want a callback per store.
// StoreCreated fires once for every store defined after installation, and
// is replayed once for each store that already existed when the plugin was
// installed.
type StoreHook interface {
	StoreCreated(s *Store)
}

// Use installs a plugin. Re-installing an already installed name logs a
// warning and leaves the original in place.
func (r *Registry) Use(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("store: plugin is required")
	}
	name := plugin.Name()
	if name == "" {
		return ErrPluginNameRequired
	}

	r.mu.Lock()
	if _, exists := r.plugins[name]; exists {
		r.mu.Unlock()
		r.logger.Warn("store: plugin already installed", "plugin", name)
		return nil
	}
	r.plugins[name] = plugin
	r.pluginOrder = append(r.pluginOrder, name)
	existing := make([]*Store, 0, len(r.storeOrder))
	for _, id := range r.storeOrder {
		existing = append(existing, r.stores[id])
	}
	r.mu.Unlock()

	if installer, ok := plugin.(Installer); ok {
		if err := installer.Install(r); err != nil {
			return fmt.Errorf("store: install plugin %q: %w", name, err)
		}
	}
	for _, s := range existing {
		r.fireStoreCreated(plugin, s)
	}
	return nil
}

func (r *Registry) pluginList() []Plugin {
	out := make([]Plugin, 0, len(r.pluginOrder))
	for _, name := range r.pluginOrder {
		out = append(out, r.plugins[name])
	}
	return out
}

func (r *Registry) fireStoreCreated(plugin Plugin, s *Store) {
	hook, ok := plugin.(StoreHook)
	if !ok {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("store: plugin hook panicked", "plugin", plugin.Name(), "store", s.id, "panic", rec)
		}
	}()
	hook.StoreCreated(s)
}
