package validate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/epubtools/opfcheck/pkg/opf"
	"github.com/epubtools/opfcheck/pkg/report"
)

// collectionNode is one collection element with its nested
// sub-collections and member resource links.
type collectionNode struct {
	roles    []string
	langs    []string // dc:language values from the collection metadata
	children []*collectionNode
	links    []collectionLink
	loc      string
}

type collectionLink struct {
	href string
	loc  string
}

// role returns the first declared role, or "".
func (c *collectionNode) role() string {
	if len(c.roles) == 0 {
		return ""
	}
	return c.roles[0]
}

func (c *collectionNode) hasRole(role string) bool {
	for _, r := range c.roles {
		if r == role {
			return true
		}
	}
	return false
}

// roleShape drives the recursive collection check: where a role may
// appear, which child roles it accepts, and what kind of resource its
// members must be.
type roleShape struct {
	nestedOnly      bool // must not appear at the document top level
	allowsChildren  bool
	allowedChildren map[string]bool // nil means any child role
	memberMediaType string          // required member media type, "" = any
	memberCheckID   string          // diagnostic for a wrong member type
}

var roleShapes = map[string]roleShape{
	"dictionary":           {},
	"distributable-object": {allowsChildren: true},
	"index": {
		allowsChildren:  true,
		allowedChildren: map[string]bool{"index-group": true},
		memberMediaType: xhtmlMediaType,
		memberCheckID:   "OPF-071",
	},
	"index-group": {
		nestedOnly:      true,
		memberMediaType: xhtmlMediaType,
		memberCheckID:   "OPF-071",
	},
	"manifest":             {nestedOnly: true},
	"preview":              {},
	"scriptable-component": {},
}

func (v *run) buildCollections() {
	for i, el := range v.root.All("collection") {
		v.collections = append(v.collections,
			buildCollectionNode(el, fmt.Sprintf("package/collection[%d]", i+1)))
	}
}

func buildCollectionNode(el *opf.Element, loc string) *collectionNode {
	node := &collectionNode{loc: loc}
	if role, ok := el.Attr("role"); ok {
		node.roles = strings.Fields(role)
	}
	if md := el.First("metadata"); md != nil {
		for _, c := range md.Children {
			if c.Local == "language" && c.InNS(opf.NSDublinCore) {
				node.langs = append(node.langs, strings.TrimSpace(c.Text))
			}
		}
	}
	childN, linkN := 0, 0
	for _, c := range el.Children {
		switch c.Local {
		case "collection":
			childN++
			node.children = append(node.children,
				buildCollectionNode(c, fmt.Sprintf("%s/collection[%d]", loc, childN)))
		case "link":
			linkN++
			node.links = append(node.links, collectionLink{
				href: c.AttrValue("href"),
				loc:  fmt.Sprintf("%s/link[%d]", loc, linkN),
			})
		}
	}
	return node
}

// checkCollections walks every collection subtree, carrying the
// applicable shape so depth and child-role constraints hold at every
// level.
func (v *run) checkCollections() {
	for _, c := range v.collections {
		v.checkCollectionNode(c, nil)
	}
}

func (v *run) checkCollectionNode(c *collectionNode, parent *collectionNode) {
	if len(c.roles) == 0 {
		v.r.AddWithLocation(report.Error, "RSC-005",
			"Collection is missing required attribute 'role'", c.loc)
	}

	shape := roleShape{allowsChildren: true}
	shapeKnown := false
	for _, role := range c.roles {
		s, ok := v.checkCollectionRole(role, c.loc)
		if ok && !shapeKnown {
			shape = s
			shapeKnown = true
		}
	}

	if shapeKnown {
		if shape.nestedOnly && parent == nil {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("A '%s' collection must not appear at the package level", c.role()), c.loc)
		}
		if !shape.allowsChildren && len(c.children) > 0 {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("A '%s' collection must not contain sub-collections", c.role()), c.loc)
		}
		if shape.allowedChildren != nil {
			for _, child := range c.children {
				if !shape.allowedChildren[child.role()] {
					v.r.AddWithLocation(report.Error, "RSC-005",
						fmt.Sprintf("A '%s' collection cannot contain a '%s' collection", c.role(), child.role()), child.loc)
				}
			}
		}
	}

	for _, link := range c.links {
		if link.href == "" {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"Collection link is missing required attribute 'href'", link.loc)
			continue
		}
		if isRemote(link.href) {
			continue
		}
		it, ok := v.itemHrefs[normalizeHref(link.href)]
		if !ok {
			v.r.AddWithLocation(report.Error, "OPF-081",
				fmt.Sprintf("The collection resource '%s' could not be found in the manifest", link.href), link.loc)
			continue
		}
		if shapeKnown && shape.memberMediaType != "" && it.hasMediaType && it.mediaType != shape.memberMediaType {
			v.r.AddWithLocation(report.Error, shape.memberCheckID,
				fmt.Sprintf("The collection resource '%s' must be of the '%s' type", link.href, shape.memberMediaType), link.loc)
		}
	}

	for _, child := range c.children {
		v.checkCollectionNode(child, c)
	}
}

// checkCollectionRole validates one role token. Unprefixed tokens must
// be reserved roles; everything else is a foreign role identified by
// URI, which must be valid and outside the reserved authority.
func (v *run) checkCollectionRole(role, loc string) (roleShape, bool) {
	if !strings.Contains(role, ":") && !strings.Contains(role, "/") {
		shape, known := roleShapes[role]
		if !known {
			v.r.AddWithLocation(report.Error, "OPF-068",
				fmt.Sprintf("Unknown collection role '%s'", role), loc)
			return roleShape{}, false
		}
		return shape, true
	}

	u, err := url.Parse(role)
	if err != nil || u.Scheme == "" {
		v.r.AddWithLocation(report.Warning, "OPF-070",
			fmt.Sprintf("Custom collection role '%s' is not a valid URI", role), loc)
		return roleShape{}, false
	}
	if strings.HasSuffix(u.Hostname(), "idpf.org") {
		v.r.AddWithLocation(report.Error, "OPF-069",
			fmt.Sprintf("Custom collection role '%s' must not use the reserved 'idpf.org' domain", role), loc)
	}
	return roleShape{}, false
}
