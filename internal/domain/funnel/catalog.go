package funnel

// DefaultCatalog is the fixed product script every visitor walks through,
// in evaluation order.
var DefaultCatalog = []Product{
	{
		ID:       1,
		Name:     "Relógio Invicta Pro Diver",
		Category: "Relógios",
		Image:    "https://images.pexels.com/photos/190819/pexels-photo-190819.jpeg",
	},
	{
		ID:       2,
		Name:     "Relógio Casio Vintage Dourado",
		Category: "Relógios",
		Image:    "https://images.pexels.com/photos/277390/pexels-photo-277390.jpeg",
	},
	{
		ID:       3,
		Name:     "Bolsa Michael Kors Jet Set",
		Category: "Bolsas",
		Image:    "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg",
	},
	{
		ID:       4,
		Name:     "Bolsa Louis Vuitton Neverfull",
		Category: "Bolsas",
		Image:    "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg",
	},
	{
		ID:       5,
		Name:     "Tênis Nike Air Max 90",
		Category: "Tênis",
		Image:    "https://images.pexels.com/photos/2529148/pexels-photo-2529148.jpeg",
	},
	{
		ID:       6,
		Name:     "Tênis Adidas Yeezy Boost 350",
		Category: "Tênis",
		Image:    "https://images.pexels.com/photos/1464625/pexels-photo-1464625.jpeg",
	},
	{
		ID:       7,
		Name:     "Tênis New Balance 574 Classic",
		Category: "Tênis",
		Image:    "https://images.pexels.com/photos/1598505/pexels-photo-1598505.jpeg",
	},
}
